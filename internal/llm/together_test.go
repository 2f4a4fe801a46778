package llm

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestNewTogetherProvider(t *testing.T) {
	t.Run("friendly model name", func(t *testing.T) {
		p, err := NewTogetherProvider(TogetherConfig{APIKey: "tk", Model: "mixtral"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "mistralai/Mixtral-8x7B-Instruct-v0.1" {
			t.Errorf("model = %q", p.ModelID())
		}
	})

	t.Run("model pass-through", func(t *testing.T) {
		p, err := NewTogetherProvider(TogetherConfig{APIKey: "tk", Model: "Qwen/Qwen2.5-7B-Instruct-Turbo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "Qwen/Qwen2.5-7B-Instruct-Turbo" {
			t.Errorf("model = %q", p.ModelID())
		}
	})

	t.Run("empty API key", func(t *testing.T) {
		if _, err := NewTogetherProvider(TogetherConfig{Model: "mixtral"}); err == nil {
			t.Fatal("expected error for empty API key")
		}
	})
}

func TestTogetherProvider_JSONObjectFormat(t *testing.T) {
	var sent map[string]any
	server := httptest.NewServer(completionHandler(t, `{"relevant":false,"category":"off-topic"}`, &sent))
	t.Cleanup(server.Close)

	p, err := NewTogetherProvider(TogetherConfig{APIKey: "tk", Model: "mixtral", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(context.Background(), Request{Schema: relevanceSchema()}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	format, _ := sent["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("response_format = %v", sent["response_format"])
	}
	if sent["model"] != "mistralai/Mixtral-8x7B-Instruct-v0.1" {
		t.Fatalf("model = %v", sent["model"])
	}
}
