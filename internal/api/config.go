package api

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string

	// Timeout bounds a single request. Zero means no limit.
	Timeout time.Duration

	// SessionFile is where the session cookie and user ID are kept between
	// runs. Empty disables persistence.
	SessionFile string

	// Verbose logs every request with its status and latency.
	Verbose bool
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
	}
}

// ConfigFromEnv overlays TUTORCHAT_* variables on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if s := os.Getenv("TUTORCHAT_SERVER"); s != "" {
		cfg.BaseURL = s
	}
	if t := os.Getenv("TUTORCHAT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	if p := os.Getenv("TUTORCHAT_SESSION_FILE"); p != "" {
		cfg.SessionFile = p
	}
	return cfg
}

// Validate checks the base URL.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL %q must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server URL %q has no host", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// DefaultSessionPath returns $XDG_CONFIG_HOME/tutorchat/session.json,
// creating the directory if needed.
func DefaultSessionPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	dir = filepath.Join(dir, "tutorchat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return filepath.Join(dir, "session.json"), nil
}
