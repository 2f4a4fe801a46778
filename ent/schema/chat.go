package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Chat is a saved transcript.
type Chat struct {
	ent.Schema
}

func (Chat) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable().
			Comment("UUID"),
		field.String("user_id"),
		field.String("topic").
			Comment("Topic ID from the catalog"),
		field.String("preview").
			Comment("First message without markup, cut to 50 characters"),
		field.Text("messages").
			Comment("JSON array of {content, sender}"),
		field.Text("quiz_state").
			Optional().
			Nillable().
			Comment("Opaque JSON kept for the web client"),
		field.Int64("created_at").
			Immutable(),
	}
}

func (Chat) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("chats").
			Field("user_id").
			Unique().
			Required().
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Chat) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "created_at"),
	}
}
