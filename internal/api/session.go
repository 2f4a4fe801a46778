package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
)

type savedSession struct {
	Server  string        `json:"server"`
	User    *User         `json:"user,omitempty"`
	Cookies []savedCookie `json:"cookies,omitempty"`
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *Client) restore() error {
	if c.sessionFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.sessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var s savedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode %s: %w", c.sessionFile, err)
	}
	if s.Server != c.base.String() {
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, sc := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.jar.SetCookies(c.base, cookies)
	c.user = s.User
	return nil
}

func (c *Client) persist() error {
	if c.sessionFile == "" {
		return nil
	}

	c.mu.Lock()
	s := savedSession{Server: c.base.String(), User: c.user}
	for _, ck := range c.jar.Cookies(c.base) {
		s.Cookies = append(s.Cookies, savedCookie{Name: ck.Name, Value: ck.Value})
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionFile), 0o700); err != nil {
		return err
	}
	tmp := c.sessionFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.sessionFile)
}

// clear forgets the session cookie and user, locally and on disk.
func (c *Client) clear() {
	jar, _ := cookiejar.New(nil)

	c.mu.Lock()
	c.jar = jar
	c.user = nil
	c.mu.Unlock()

	if c.sessionFile == "" {
		return
	}
	if err := os.Remove(c.sessionFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Printf("api: removing session file: %v", err)
	}
}
