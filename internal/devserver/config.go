package devserver

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the backend settings.
type Config struct {
	// Addr is the listen address. Default ":8000".
	Addr string

	// SessionSecret signs the session cookie. When empty a random key is
	// generated, so sessions do not survive a restart.
	SessionSecret string

	// SecureCookies marks the session cookie Secure. Leave off when
	// serving plain HTTP or clients will never send the cookie back.
	SecureCookies bool

	// SessionMaxAge is the session lifetime, refreshed on check-session.
	SessionMaxAge time.Duration

	// PasswordCost is the bcrypt cost for new passwords.
	PasswordCost int

	// TrustUserHeader lets the history endpoints identify the user by the
	// user-id header alone, as the original web backend did. Off by
	// default: anyone who knows a username could read that user's chats.
	TrustUserHeader bool
}

// DefaultConfig returns the backend defaults.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8000",
		SessionMaxAge: 7 * 24 * time.Hour,
		PasswordCost:  bcrypt.DefaultCost,
	}
}

// ConfigFromEnv overlays TUTORCHAT_* variables on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if a := os.Getenv("TUTORCHAT_ADDR"); a != "" {
		cfg.Addr = a
	}
	if s := os.Getenv("TUTORCHAT_SESSION_SECRET"); s != "" {
		cfg.SessionSecret = s
	}
	if v := os.Getenv("TUTORCHAT_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SecureCookies = b
		}
	}
	if v := os.Getenv("TUTORCHAT_TRUST_USER_HEADER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TrustUserHeader = b
		}
	}
	return cfg
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		return fmt.Errorf("TUTORCHAT_SESSION_SECRET must be at least 32 bytes, got %d", len(c.SessionSecret))
	}
	if c.SessionMaxAge <= 0 {
		return errors.New("session max age must be positive")
	}
	if c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost {
		return fmt.Errorf("password cost %d outside [%d, %d]", c.PasswordCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// sessionKey returns the cookie signing key.
func (c Config) sessionKey() (key []byte, generated bool) {
	if c.SessionSecret != "" {
		return []byte(c.SessionSecret), false
	}
	return securecookie.GenerateRandomKey(32), true
}
