package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt to the LLM. When req.Schema is set the
	// response Content is JSON validated against it; otherwise Content is
	// the reply text encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the tutor's role and constraints.
	System string

	// Messages is the conversation history. Tutor calls are single turn,
	// so this usually holds one user message.
	Messages []Message

	// Schema, when set, asks the provider for structured JSON output.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name
	// for OpenAI). Kebab-case, e.g. "topic-relevance".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns the reply text of a response generated without a schema.
func (r *Response) Text() (string, error) {
	var s string
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", &ErrInvalidResponse{Content: r.Content, Err: fmt.Errorf("expected text content: %w", err)}
	}
	return s, nil
}

// TextContent encodes plain reply text the way providers return it for
// schema-less requests.
func TextContent(text string) json.RawMessage {
	b, _ := json.Marshal(text)
	return b
}

// decodeContent turns the raw model output into Response content: schema
// requests are validated JSON, everything else becomes a JSON string.
func decodeContent(schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		return TextContent(text), nil
	}
	content := json.RawMessage(text)
	if err := validateResponse(schema, content); err != nil {
		return nil, err
	}
	return content, nil
}
