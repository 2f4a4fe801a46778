package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	entschema "entgo.io/ent/schema"
	"entgo.io/ent/schema/field"

	model "github.com/abhisek/tutorchat/ent/schema"
)

// Migration tables are built from the ent schema declarations in ent/schema,
// so the model and the database cannot drift apart.
var (
	// Tables holds all the tables in the schema, in creation order.
	Tables = mustTables(model.User{}, model.Chat{}, model.LLMRequest{})

	// UsersTable holds the schema information for the "users" table.
	UsersTable = Tables[0]
	// ChatsTable holds the schema information for the "chats" table.
	ChatsTable = Tables[1]
	// LLMRequestsTable holds the schema information for the "llm_requests" table.
	LLMRequestsTable = Tables[2]
)

func mustTables(schemas ...ent.Interface) []*schema.Table {
	tables, err := buildTables(schemas...)
	if err != nil {
		panic(fmt.Sprintf("store: invalid ent schema: %v", err))
	}
	return tables
}

// buildTables converts ent schemas to migration tables. Foreign keys are
// resolved in a second pass once every table exists.
func buildTables(schemas ...ent.Interface) ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(schemas))
	byType := make(map[string]*schema.Table, len(schemas))
	for _, s := range schemas {
		t, err := tableFor(s)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		byType[typeName(s)] = t
	}
	for i, s := range schemas {
		if err := addForeignKeys(tables[i], s, byType); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func tableFor(s ent.Interface) (*schema.Table, error) {
	name := typeName(s)
	t := &schema.Table{Name: tableName(name, s.Annotations())}

	var id *schema.Column
	for _, f := range s.Fields() {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
		}
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Unique:   d.Unique,
			Nullable: d.Optional,
		}
		if d.StorageKey != "" {
			col.Name = d.StorageKey
		}
		if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
			col.Default = d.Default
		}
		if col.Name == "id" {
			id = col
			continue
		}
		t.Columns = append(t.Columns, col)
	}
	if id == nil {
		// ent's implicit primary key.
		id = &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
	}
	t.Columns = append([]*schema.Column{id}, t.Columns...)
	t.PrimaryKey = []*schema.Column{id}

	for _, idx := range s.Indexes() {
		d := idx.Descriptor()
		index := &schema.Index{
			Name:   d.StorageKey,
			Unique: d.Unique,
		}
		if index.Name == "" {
			index.Name = strings.ToLower(name) + "_" + strings.Join(d.Fields, "_")
		}
		for _, f := range d.Fields {
			col, err := column(t, f)
			if err != nil {
				return nil, fmt.Errorf("%s index: %w", name, err)
			}
			index.Columns = append(index.Columns, col)
		}
		t.Indexes = append(t.Indexes, index)
	}
	return t, nil
}

// addForeignKeys adds a key for every inverse edge bound to a field.
func addForeignKeys(t *schema.Table, s ent.Interface, byType map[string]*schema.Table) error {
	for _, e := range s.Edges() {
		d := e.Descriptor()
		if !d.Inverse || d.Field == "" {
			continue
		}
		ref, ok := byType[d.Type]
		if !ok {
			return fmt.Errorf("%s.%s: unknown edge type %q", t.Name, d.Name, d.Type)
		}
		col, err := column(t, d.Field)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name, d.Name, err)
		}
		t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
			Symbol:     fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, d.RefName),
			Columns:    []*schema.Column{col},
			RefTable:   ref,
			RefColumns: ref.PrimaryKey,
			OnDelete:   schema.ReferenceOption(sqlAnnotation(d.Annotations).OnDelete),
		})
	}
	return nil
}

func column(t *schema.Table, name string) (*schema.Column, error) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no column %q in %s", name, t.Name)
}

func typeName(s ent.Interface) string {
	return reflect.Indirect(reflect.ValueOf(s)).Type().Name()
}

// tableName honors an entsql table annotation, else pluralizes the type
// name the way ent does for simple nouns.
func tableName(typ string, anns []entschema.Annotation) string {
	if t := sqlAnnotation(anns).Table; t != "" {
		return t
	}
	return strings.ToLower(typ) + "s"
}

// sqlAnnotation merges the entsql annotations in anns.
func sqlAnnotation(anns []entschema.Annotation) entsql.Annotation {
	var out entsql.Annotation
	for _, a := range anns {
		var ann entsql.Annotation
		switch a := a.(type) {
		case entsql.Annotation:
			ann = a
		case *entsql.Annotation:
			ann = *a
		default:
			continue
		}
		if ann.Table != "" {
			out.Table = ann.Table
		}
		if ann.OnDelete != "" {
			out.OnDelete = ann.OnDelete
		}
	}
	return out
}

// migrate creates or upgrades all tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
