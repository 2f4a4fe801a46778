package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"
)

var userColumns = []string{"id", "username", "password_hash", "level", "progress", "created_at"}

type userRepo struct {
	db *sql.DB
}

func (r *userRepo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == "" {
		u.Level = DefaultLevel
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query, args := builder().Insert(UsersTable.Name).
		Columns(userColumns...).
		Values(u.ID, u.Username, u.PasswordHash, u.Level, u.Progress, u.CreatedAt.UnixMilli()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) ByUsername(ctx context.Context, username string) (*User, error) {
	return r.one(ctx, entsql.EQ("username", username))
}

func (r *userRepo) ByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

func (r *userRepo) one(ctx context.Context, pred *entsql.Predicate) (*User, error) {
	b := builder()
	query, args := b.Select(userColumns...).
		From(b.Table(UsersTable.Name)).
		Where(pred).
		Limit(1).
		Query()

	var (
		u       User
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Level, &u.Progress, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return &u, nil
}

func (r *userRepo) SetProgress(ctx context.Context, id string, progress int, level string) error {
	query, args := builder().Update(UsersTable.Name).
		Set("progress", progress).
		Set("level", level).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
