package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/store"
)

type authResponse struct {
	Success bool      `json:"success,omitempty"`
	Message string    `json:"message,omitempty"`
	User    *api.User `json:"user,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func wireUser(u *store.User) *api.User {
	return &api.User{ID: u.ID, Username: u.Username, Level: u.Level}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeJSON(w, http.StatusOK, authResponse{Error: "Username and password are required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cfg.PasswordCost)
	if err != nil {
		s.logger.Printf("register: hash password: %v", err)
		writeJSON(w, http.StatusOK, authResponse{Error: "Failed to create user"})
		return
	}

	err = s.users.Create(r.Context(), &store.User{Username: creds.Username, PasswordHash: string(hash)})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		writeJSON(w, http.StatusOK, authResponse{Error: "Username already exists"})
		return
	case err != nil:
		s.logger.Printf("register: %v", err)
		writeJSON(w, http.StatusOK, authResponse{Error: "Failed to create user"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Message: "Registration successful! You can now login."})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		writeJSON(w, http.StatusOK, authResponse{Error: "Username and password are required"})
		return
	}

	u, err := s.users.ByUsername(r.Context(), strings.TrimSpace(creds.Username))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Printf("login: %v", err)
		}
		writeJSON(w, http.StatusOK, authResponse{Error: "Invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		writeJSON(w, http.StatusOK, authResponse{Error: "Invalid credentials"})
		return
	}

	sess, _ := s.sessions.New(r, sessionName)
	sess.Values[sessionUserKey] = u.ID
	if err := sess.Save(r, w); err != nil {
		s.logger.Printf("login: save session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Message: "Login successful!", User: wireUser(u)})
}

func (s *Server) checkSession(w http.ResponseWriter, r *http.Request) {
	u, sess := s.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	// Each check extends the session.
	if err := sess.Save(r, w); err != nil {
		s.logger.Printf("check-session: refresh: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": wireUser(u)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.logger.Printf("logout: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// currentUser resolves the session cookie. A missing, tampered or stale
// cookie yields nil.
func (s *Server) currentUser(r *http.Request) (*store.User, *sessions.Session) {
	sess, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return nil, nil
	}
	id, _ := sess.Values[sessionUserKey].(string)
	if id == "" {
		return nil, nil
	}
	u, err := s.users.ByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Printf("session user %s: %v", id, err)
		}
		return nil, nil
	}
	return u, sess
}

// requireUser writes 401 and returns nil when there is no session.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *store.User {
	u, _ := s.currentUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
	}
	return u
}

// headerUser resolves the user-id header used by the history endpoints.
// The header may carry the user ID or, from older clients, the username.
// A session naming the same user is required unless TrustUserHeader is set.
func (s *Server) headerUser(w http.ResponseWriter, r *http.Request) *store.User {
	key := strings.TrimSpace(r.Header.Get("user-id"))
	if key == "" {
		key = strings.TrimSpace(r.URL.Query().Get("user_id"))
	}
	if key == "" {
		writeError(w, http.StatusUnauthorized, "User ID required")
		return nil
	}

	u, err := s.users.ByID(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		u, err = s.users.ByUsername(r.Context(), key)
	}
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Printf("resolve user %s: %v", key, err)
		}
		writeError(w, http.StatusUnauthorized, "Unknown user")
		return nil
	}

	sessUser, _ := s.currentUser(r)
	switch {
	case sessUser == nil && !s.cfg.TrustUserHeader:
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil
	case sessUser != nil && sessUser.ID != u.ID:
		writeError(w, http.StatusForbidden, "User ID does not match the session")
		return nil
	}
	return u
}
