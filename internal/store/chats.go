package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var chatColumns = []string{"id", "user_id", "topic", "preview", "messages", "quiz_state", "created_at"}

type chatRepo struct {
	db *sql.DB
}

func (r *chatRepo) Save(ctx context.Context, c *Chat) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	messages := string(c.Messages)
	if messages == "" {
		messages = "[]"
	}
	var quiz sql.NullString
	if len(c.QuizState) > 0 && string(c.QuizState) != "null" {
		quiz = sql.NullString{String: string(c.QuizState), Valid: true}
	}

	// Nanosecond timestamps keep ordering stable for chats saved back to back.
	query, args := builder().Insert(ChatsTable.Name).
		Columns(chatColumns...).
		Values(c.ID, c.UserID, c.Topic, c.Preview, messages, quiz, c.CreatedAt.UnixNano()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (r *chatRepo) ListByUser(ctx context.Context, userID string) ([]Chat, error) {
	b := builder()
	query, args := b.Select(chatColumns...).
		From(b.Table(ChatsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

func (r *chatRepo) Get(ctx context.Context, userID, id string) (*Chat, error) {
	b := builder()
	query, args := b.Select(chatColumns...).
		From(b.Table(ChatsTable.Name)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))).
		Limit(1).
		Query()

	c, err := scanChat(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChat(s scanner) (*Chat, error) {
	var (
		c        Chat
		messages string
		quiz     sql.NullString
		created  int64
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Topic, &c.Preview, &messages, &quiz, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	c.Messages = json.RawMessage(messages)
	if quiz.Valid {
		c.QuizState = json.RawMessage(quiz.String)
	}
	c.CreatedAt = time.Unix(0, created).UTC()
	return &c, nil
}
