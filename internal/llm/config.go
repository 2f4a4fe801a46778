package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "together", "openai", "anthropic", "gemini", "mock"
	Provider string

	Together  TogetherConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout bounds a single tutor request including retries. Default: 60s.
	Timeout time.Duration
}

// TogetherConfig holds Together AI configuration. Together serves an
// OpenAI-compatible API.
type TogetherConfig struct {
	APIKey  string
	Model   string // Default: "mixtral"
	BaseURL string // Default: "https://api.together.xyz/v1"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "together",
		Together:  TogetherConfig{Model: "mixtral"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from TUTORCHAT_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "TUTORCHAT_LLM_PROVIDER")

	setString(&cfg.Together.APIKey, "TUTORCHAT_TOGETHER_API_KEY")
	setString(&cfg.Together.Model, "TUTORCHAT_TOGETHER_MODEL")
	setString(&cfg.Together.BaseURL, "TUTORCHAT_TOGETHER_BASE_URL")

	setString(&cfg.OpenAI.APIKey, "TUTORCHAT_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "TUTORCHAT_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "TUTORCHAT_OPENAI_BASE_URL")

	setString(&cfg.Anthropic.APIKey, "TUTORCHAT_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "TUTORCHAT_ANTHROPIC_MODEL")

	setString(&cfg.Gemini.APIKey, "TUTORCHAT_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "TUTORCHAT_GEMINI_MODEL")

	if v := os.Getenv("TUTORCHAT_LLM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("TUTORCHAT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig checks the providers' own API key variables in priority
// order (Together, Gemini, OpenAI, Anthropic) and returns a Config for the
// first one found. Returns (Config{}, false) if none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("TOGETHER_API_KEY"); k != "" {
		cfg.Provider = "together"
		cfg.Together.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "together":
		key = c.Together.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "anthropic":
		key = c.Anthropic.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("TUTORCHAT_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
