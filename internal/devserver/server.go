// Package devserver is the companion backend the terminal client talks to.
// It serves the /api contract, the static quiz and resource datasets, and
// keeps accounts and saved chats in SQLite.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/store"
)

const (
	sessionName    = "session_token"
	sessionUserKey = "user_id"
)

// Server handles the backend routes.
type Server struct {
	cfg       Config
	users     store.UserRepo
	chats     store.ChatRepo
	tutor     *Tutor
	sessions  *sessions.CookieStore
	resources bank.ResourceLists
	logger    *log.Logger
}

// New creates a Server on st. tutor may run offline but must not be nil.
func New(cfg Config, st *store.Store, tutor *Tutor, logger *log.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	resources, err := bank.ParseResourceLists(bank.ResourcesDocument())
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}

	key, generated := cfg.sessionKey()
	if generated {
		logger.Printf("no session secret configured; sessions end when the server restarts")
	}
	cookies := sessions.NewCookieStore(key)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		cfg:       cfg,
		users:     st.Users(),
		chats:     st.Chats(),
		tutor:     tutor,
		sessions:  cookies,
		resources: resources,
		logger:    logger,
	}, nil
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthz)

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("GET /api/check-session", s.checkSession)
	mux.HandleFunc("POST /api/logout", s.logout)

	mux.HandleFunc("POST /api/chat", s.chat)
	mux.HandleFunc("GET /api/chat/{id}", s.getChat)
	mux.HandleFunc("GET /api/history", s.history)
	mux.HandleFunc("POST /api/save-chat", s.saveChat)

	mux.HandleFunc("GET /api/progress", s.progress)
	mux.HandleFunc("POST /api/update-progress", s.updateProgress)
	mux.HandleFunc("GET /api/resources", s.listResources)

	mux.HandleFunc("GET "+bank.QuestionsPath, s.staticDocument(bank.QuestionsDocument()))
	mux.HandleFunc("GET "+bank.ResourcesPath, s.staticDocument(bank.ResourcesDocument()))

	return withRequestLogging(s.logger, withJSONContentType(mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("tutorchat backend listening on %s", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) staticDocument(doc []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(doc)
	}
}
