package schema

import (
	"testing"

	"entgo.io/ent/dialect/entsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMRequestTableName(t *testing.T) {
	ann, ok := LLMRequest{}.Annotations()[0].(entsql.Annotation)
	require.True(t, ok)
	assert.Equal(t, "llm_requests", ann.Table)
}

func TestUserDefaults(t *testing.T) {
	for _, f := range (User{}).Fields() {
		d := f.Descriptor()
		switch d.Name {
		case "level":
			assert.Equal(t, "beginner", d.Default)
		case "password_hash":
			assert.True(t, d.Sensitive)
		}
	}
}

func TestChatBelongsToUser(t *testing.T) {
	edges := Chat{}.Edges()
	require.Len(t, edges, 1)
	d := edges[0].Descriptor()
	assert.True(t, d.Inverse)
	assert.Equal(t, "User", d.Type)
	assert.Equal(t, "user_id", d.Field)
	assert.Equal(t, "chats", d.RefName)

	require.Len(t, d.Annotations, 1)
	ann, ok := d.Annotations[0].(*entsql.Annotation)
	require.True(t, ok)
	assert.Equal(t, entsql.Cascade, ann.OnDelete)
}
