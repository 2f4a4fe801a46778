package store

import (
	"context"
	"strings"
	"testing"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	model "github.com/abhisek/tutorchat/ent/schema"
)

func TestTablesFromEntSchemas(t *testing.T) {
	tests := []struct {
		table   *schema.Table
		name    string
		columns []string
	}{
		{UsersTable, "users", []string{"id", "username", "password_hash", "level", "progress", "created_at"}},
		{ChatsTable, "chats", []string{"id", "user_id", "topic", "preview", "messages", "quiz_state", "created_at"}},
		{LLMRequestsTable, "llm_requests", llmEventColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.table.Name != tt.name {
				t.Errorf("table name = %q, want %q", tt.table.Name, tt.name)
			}
			var got []string
			for _, c := range tt.table.Columns {
				got = append(got, c.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.columns, ",") {
				t.Errorf("columns = %v, want %v", got, tt.columns)
			}
			if len(tt.table.PrimaryKey) != 1 || tt.table.PrimaryKey[0].Name != "id" {
				t.Errorf("primary key = %v, want id", tt.table.PrimaryKey)
			}
		})
	}
}

func TestColumnAttributes(t *testing.T) {
	tests := []struct {
		table    *schema.Table
		column   string
		typ      field.Type
		nullable bool
		unique   bool
		def      any
	}{
		{UsersTable, "id", field.TypeString, false, true, nil},
		{UsersTable, "username", field.TypeString, false, true, nil},
		{UsersTable, "level", field.TypeString, false, false, DefaultLevel},
		{UsersTable, "progress", field.TypeInt, false, false, 0},
		{ChatsTable, "quiz_state", field.TypeString, true, false, nil},
		{ChatsTable, "created_at", field.TypeInt64, false, false, nil},
		{LLMRequestsTable, "success", field.TypeBool, false, false, nil},
		{LLMRequestsTable, "error_message", field.TypeString, false, false, ""},
	}

	for _, tt := range tests {
		c, err := column(tt.table, tt.column)
		if err != nil {
			t.Fatal(err)
		}
		if c.Type != tt.typ {
			t.Errorf("%s.%s type = %v, want %v", tt.table.Name, tt.column, c.Type, tt.typ)
		}
		if c.Nullable != tt.nullable {
			t.Errorf("%s.%s nullable = %v, want %v", tt.table.Name, tt.column, c.Nullable, tt.nullable)
		}
		if c.Unique != tt.unique {
			t.Errorf("%s.%s unique = %v, want %v", tt.table.Name, tt.column, c.Unique, tt.unique)
		}
		if c.Default != tt.def {
			t.Errorf("%s.%s default = %v, want %v", tt.table.Name, tt.column, c.Default, tt.def)
		}
	}

	id := LLMRequestsTable.PrimaryKey[0]
	if id.Type != field.TypeInt || !id.Increment {
		t.Errorf("llm_requests id = %v increment=%v, want auto-increment int", id.Type, id.Increment)
	}
	msgs, _ := column(ChatsTable, "messages")
	if msgs.Size != 2147483647 {
		t.Errorf("messages size = %d, want text size", msgs.Size)
	}
}

func TestIndexesAndForeignKeys(t *testing.T) {
	if len(ChatsTable.Indexes) != 1 || ChatsTable.Indexes[0].Name != "chat_user_id_created_at" {
		t.Fatalf("chats indexes = %v", ChatsTable.Indexes)
	}
	if len(LLMRequestsTable.Indexes) != 1 || LLMRequestsTable.Indexes[0].Name != "llmrequest_purpose" {
		t.Fatalf("llm_requests indexes = %v", LLMRequestsTable.Indexes)
	}

	if len(ChatsTable.ForeignKeys) != 1 {
		t.Fatalf("chats foreign keys = %d, want 1", len(ChatsTable.ForeignKeys))
	}
	fk := ChatsTable.ForeignKeys[0]
	if fk.Symbol != "chats_users_chats" {
		t.Errorf("symbol = %q", fk.Symbol)
	}
	if fk.RefTable != UsersTable || fk.Columns[0].Name != "user_id" {
		t.Errorf("fk = %s -> %s", fk.Columns[0].Name, fk.RefTable.Name)
	}
	if fk.OnDelete != schema.Cascade {
		t.Errorf("on delete = %q, want CASCADE", fk.OnDelete)
	}
	if len(UsersTable.ForeignKeys) != 0 {
		t.Errorf("users should carry no foreign keys")
	}
}

func TestDeletingUserCascadesToChats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &User{Username: "ada", PasswordHash: "a"}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.Chats().Save(ctx, &Chat{UserID: u.ID, Topic: "nlp", Messages: []byte(`[]`)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.DB().Exec("DELETE FROM users WHERE id = ?", u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM chats").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("chats left = %d, want 0", n)
	}
}

type badIndex struct {
	ent.Schema
}

func (badIndex) Indexes() []ent.Index {
	return []ent.Index{index.Fields("missing")}
}

func TestBuildTablesErrors(t *testing.T) {
	if _, err := buildTables(badIndex{}); err == nil || !strings.Contains(err.Error(), `no column "missing"`) {
		t.Errorf("bad index err = %v", err)
	}
	// Chat refers to User, which is not part of the set.
	if _, err := buildTables(model.Chat{}); err == nil || !strings.Contains(err.Error(), "unknown edge type") {
		t.Errorf("dangling edge err = %v", err)
	}
}
