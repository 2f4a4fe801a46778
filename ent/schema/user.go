package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// User is a learner account.
type User struct {
	ent.Schema
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			Comment("UUID"),
		field.String("username").
			Unique().
			NotEmpty(),
		field.String("password_hash").
			Sensitive().
			Comment("bcrypt hash"),
		field.String("level").
			Default("beginner"),
		field.Int("progress").
			Default(0).
			Comment("Progress score, clamped to [0, 100]"),
		field.Int64("created_at").
			Immutable().
			Comment("Unix milliseconds"),
	}
}

func (User) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("chats", Chat.Type),
	}
}
