package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func relevanceSchema() *Schema {
	return &Schema{
		Name:        "test-relevance",
		Description: "Whether a learner question belongs to the current topic",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"relevant":   map[string]any{"type": "boolean"},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"category":   map[string]any{"type": "string", "enum": []any{"on-topic", "off-topic", "greeting"}},
			},
			"required": []any{"relevant", "category"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"relevant":true,"confidence":0.9,"category":"on-topic"}`, false},
		{"without optional", `{"relevant":false,"category":"off-topic"}`, false},
		{"missing required", `{"confidence":0.5}`, true},
		{"wrong type", `{"relevant":"yes","category":"on-topic"}`, true},
		{"invalid enum", `{"relevant":true,"category":"maybe"}`, true},
		{"out of range", `{"relevant":true,"category":"on-topic","confidence":3}`, true},
		{"malformed", `{"relevant":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(relevanceSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name: "test-subtopics",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
					"required": []any{"name"},
				},
				"subtopics": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"topic", "subtopics"},
		},
	}

	valid := json.RawMessage(`{"topic":{"name":"NLP"},"subtopics":["Tokenization","Embeddings"]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"topic":{"name":"NLP"},"subtopics":[1,2]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestDecodeContent(t *testing.T) {
	content, err := decodeContent(nil, `Tokenization splits "text" into units.`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp := &Response{Content: content}
	text, err := resp.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != `Tokenization splits "text" into units.` {
		t.Fatalf("text = %q", text)
	}

	if _, err := decodeContent(relevanceSchema(), `not json`); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestResponseText_NotAString(t *testing.T) {
	resp := &Response{Content: json.RawMessage(`{"relevant":true}`)}
	if _, err := resp.Text(); err == nil {
		t.Fatal("expected error for object content")
	}
}
