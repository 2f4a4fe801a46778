// Package api is the HTTP client for the tutoring backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/tutorchat/internal/failure"
)

// ErrNoSession is returned by calls that need a logged-in user.
var ErrNoSession = errors.New("not logged in")

// Client talks to the backend. The session cookie lives in a cookie jar
// that is mirrored to Config.SessionFile.
type Client struct {
	base        *url.URL
	http        *http.Client
	sessionFile string
	logger      *log.Logger
	verbose     bool

	mu   sync.Mutex
	jar  *cookiejar.Jar
	user *User
}

// New creates a Client and restores any saved session. A nil logger
// discards log output.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Client{
		base:        base,
		sessionFile: cfg.SessionFile,
		logger:      logger,
		verbose:     cfg.Verbose,
	}
	c.jar, _ = cookiejar.New(nil)
	c.http = &http.Client{Jar: jarFunc(c.currentJar), Timeout: cfg.Timeout}

	if err := c.restore(); err != nil {
		logger.Printf("api: ignoring saved session: %v", err)
	}
	return c, nil
}

// jarFunc lets the http.Client follow jar replacement on logout.
type jarFunc func() *cookiejar.Jar

func (f jarFunc) SetCookies(u *url.URL, cookies []*http.Cookie) { f().SetCookies(u, cookies) }
func (f jarFunc) Cookies(u *url.URL) []*http.Cookie             { return f().Cookies(u) }

func (c *Client) currentJar() *cookiejar.Jar {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jar
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// User returns the logged-in user, or nil.
func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
	if err := c.persist(); err != nil {
		c.logger.Printf("api: saving session: %v", err)
	}
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", Credentials{Username: username, Password: password}, &resp); err != nil {
		return User{}, err
	}
	if resp.Error != "" {
		return User{}, &failure.ValidationError{Field: "credentials", Message: resp.Error}
	}
	if resp.User == nil {
		return User{}, &failure.NetworkError{Op: "POST /api/login", Err: errors.New("response has no user")}
	}
	c.setUser(resp.User)
	return *resp.User, nil
}

// Register creates an account and returns the backend's confirmation.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", Credentials{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &failure.ValidationError{Field: "credentials", Message: resp.Error}
	}
	return resp.Message, nil
}

// CheckSession returns the user of a live session cookie, or nil when
// there is none.
func (c *Client) CheckSession(ctx context.Context) (*User, error) {
	var resp checkSessionResponse
	err := c.do(ctx, http.MethodGet, "/api/check-session", nil, &resp)
	var ne *failure.NetworkError
	if errors.As(err, &ne) && ne.Unauthorized() {
		c.clear()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		c.clear()
		return nil, nil
	}

	u := *resp.User
	if prev := c.User(); prev != nil && u.ID == "" && prev.Username == u.Username {
		u.ID = prev.ID
	}
	c.setUser(&u)
	return &u, nil
}

// Logout ends the session on the backend and forgets it locally. Local
// state is cleared even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.clear()
	return err
}

// Chat posts a chat request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return ChatResponse{}, err
	}
	if resp.Error != "" {
		return ChatResponse{}, &failure.ValidationError{Field: "message", Message: resp.Error}
	}
	return resp, nil
}

// History lists the user's saved chats, newest first.
func (c *Client) History(ctx context.Context) ([]SavedChat, error) {
	if c.User() == nil {
		return nil, ErrNoSession
	}
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// GetChat returns one saved chat of the logged-in user. Only Topic and
// Messages are filled in.
func (c *Client) GetChat(ctx context.Context, id string) (SavedChat, error) {
	if c.User() == nil {
		return SavedChat{}, ErrNoSession
	}
	var resp SavedChat
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(id), nil, &resp); err != nil {
		return SavedChat{}, err
	}
	resp.ID = id
	return resp, nil
}

// SaveChat stores a transcript.
func (c *Client) SaveChat(ctx context.Context, req SaveChatRequest) (*SavedChat, error) {
	if c.User() == nil {
		return nil, ErrNoSession
	}
	if req.Messages == nil {
		req.Messages = []WireMessage{}
	}
	var resp saveChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/save-chat", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" || !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend did not confirm the save"
		}
		return nil, errors.New(msg)
	}
	return resp.Chat, nil
}

// Progress returns the user's progress score.
func (c *Client) Progress(ctx context.Context) (int, error) {
	var resp progressResponse
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &resp); err != nil {
		return 0, err
	}
	return int(resp.Progress), nil
}

// UpdateProgress stores a new progress score and returns the stored value.
func (c *Client) UpdateProgress(ctx context.Context, score int) (int, error) {
	var resp updateProgressResponse
	if err := c.do(ctx, http.MethodPost, "/api/update-progress", updateProgressRequest{Score: score}, &resp); err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, errors.New("backend did not confirm the update")
	}
	return int(resp.Progress), nil
}

// FetchStatic downloads a static document such as the quiz bank.
func (c *Client) FetchStatic(ctx context.Context, path string) ([]byte, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
	}

	data, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &failure.NetworkError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	op := method + " " + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u := c.User(); u != nil {
		req.Header.Set("user-id", u.Key())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.tracef("api: %s failed after %s: %v", op, time.Since(start).Round(time.Millisecond), err)
		return nil, &failure.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.tracef("api: %s -> %d (%s)", op, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &failure.NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &failure.NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(errorDetail(resp.StatusCode, data))}
	}
	return data, nil
}

func (c *Client) tracef(format string, args ...any) {
	if c.verbose {
		c.logger.Printf(format, args...)
	}
}

func errorDetail(status int, data []byte) string {
	var e errorBody
	if json.Unmarshal(data, &e) == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return http.StatusText(status)
}
