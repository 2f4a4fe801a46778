package llm

import "fmt"

const defaultTogetherBaseURL = "https://api.together.xyz/v1"

// togetherModels maps friendly names to Together model IDs.
var togetherModels = map[string]string{
	"mixtral": "mistralai/Mixtral-8x7B-Instruct-v0.1",
	"llama":   "meta-llama/Llama-3.3-70B-Instruct-Turbo",
}

// TogetherProvider targets the Together AI chat completions API, which is
// OpenAI-compatible, so the OpenAI SDK is reused.
type TogetherProvider struct {
	*OpenAIProvider
}

// NewTogetherProvider creates a provider targeting Together AI.
func NewTogetherProvider(cfg TogetherConfig) (*TogetherProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("together API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTogetherBaseURL
	}

	inner := newOpenAICompatible(cfg.APIKey, baseURL, resolveModel(cfg.Model, togetherModels), false)
	return &TogetherProvider{OpenAIProvider: inner}, nil
}
