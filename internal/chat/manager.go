// Package chat owns the conversation state of a logged-in user: the open
// topic, its transcript and quiz, and saving and loading chats.
//
// Every operation returns the events describing what changed, so a
// presentation layer can follow along without reading Manager state.
package chat

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/failure"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/quiz"
	"github.com/abhisek/tutorchat/internal/topic"
	"github.com/abhisek/tutorchat/internal/typing"
)

// ErrNotLoggedIn is returned by operations that need a session.
var ErrNotLoggedIn = errors.New("not logged in")

// Backend is the part of the API client the manager uses.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.User, error)
	Register(ctx context.Context, username, password string) (string, error)
	CheckSession(ctx context.Context) (*api.User, error)
	Logout(ctx context.Context) error
	Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	History(ctx context.Context) ([]api.SavedChat, error)
	SaveChat(ctx context.Context, req api.SaveChatRequest) (*api.SavedChat, error)
	Progress(ctx context.Context) (int, error)
}

// Manager runs one operation at a time against the current Session.
type Manager struct {
	backend Backend
	quiz    *quiz.Engine
	data    bank.Source
	logger  *log.Logger

	mu      sync.Mutex
	session *Session
}

// NewManager creates a Manager. A nil logger discards log output.
func NewManager(backend Backend, engine *quiz.Engine, data bank.Source, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{backend: backend, quiz: engine, data: data, logger: logger}
}

// Snapshot returns a copy of the current session, or false when logged out.
func (m *Manager) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Snapshot{}, false
	}
	return m.session.snapshot(), true
}

// Restore resumes a session from a live session cookie.
func (m *Manager) Restore(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, err := m.backend.CheckSession(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return []Event{{Kind: ViewChanged, View: ViewAuth}}, nil
	}
	return m.begin(ctx, *u), nil
}

// Login authenticates and starts a session.
func (m *Manager) Login(ctx context.Context, username, password string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return nil, err
	}
	u, err := m.backend.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return m.begin(ctx, u), nil
}

// Register creates an account and returns the backend's confirmation.
func (m *Manager) Register(ctx context.Context, username, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return "", err
	}
	return m.backend.Register(ctx, username, password)
}

func checkCredentials(username, password string) error {
	if username == "" || password == "" {
		return &failure.ValidationError{Field: "credentials", Message: "Please enter both username and password"}
	}
	return nil
}

func (m *Manager) begin(ctx context.Context, u api.User) []Event {
	m.session = &Session{User: u}
	user := u
	events := []Event{
		{Kind: UserChanged, User: &user},
		{Kind: ViewChanged, View: ViewTopics},
	}

	if p, err := m.backend.Progress(ctx); err != nil {
		m.logger.Printf("chat: loading progress: %v", err)
	} else {
		m.session.Progress = p
		events = append(events, Event{Kind: ProgressChanged, Progress: p})
	}
	return append(events, m.refreshHistory(ctx)...)
}

// Logout saves any unsaved transcript and ends the session. The local
// session is dropped even when the backend cannot be reached.
func (m *Manager) Logout(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []Event
	if s := m.session; s != nil {
		if _, err := m.flush(ctx, s); err != nil {
			events = append(events, noticeEvent(err))
		}
	}
	if err := m.backend.Logout(ctx); err != nil {
		m.logger.Printf("chat: logout: %v", err)
	}
	m.session = nil
	return append(events,
		Event{Kind: UserChanged},
		Event{Kind: ViewChanged, View: ViewAuth},
	), nil
}

// OpenTopic saves the current transcript, then starts a fresh one on
// topicID with the backend's introduction.
func (m *Manager) OpenTopic(ctx context.Context, topicID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}
	t, err := topic.Get(topicID)
	if err != nil {
		return nil, &failure.ValidationError{Field: "topic", Message: "Unknown topic"}
	}

	events := m.flushWithNotice(ctx, s)
	s.Topic = topicID
	events = append(events,
		Event{Kind: QuizChanged, QuizActive: false},
		Event{Kind: ViewChanged, View: ViewChat, Topic: topicID},
	)

	resp, err := m.backend.Chat(ctx, api.ChatRequest{Topic: topicID})
	if err != nil {
		return events, err
	}
	events = append(events, m.appendReplies(s, resp.Response)...)

	s.Subtopics = resp.Subtopics
	if len(s.Subtopics) == 0 {
		s.Subtopics = t.Subtopics
	}
	return append(events, Event{Kind: SubtopicsOffered, Subtopics: append([]string(nil), s.Subtopics...)}), nil
}

// ExploreSubtopic asks the backend for a short explanation of subtopic.
func (m *Manager) ExploreSubtopic(ctx context.Context, subtopic string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}
	resp, err := m.backend.Chat(ctx, api.ChatRequest{
		Message: fmt.Sprintf("Explain %s in 1-2 sentences", subtopic),
		Topic:   s.Topic,
	})
	if err != nil {
		return nil, err
	}
	return m.appendReplies(s, resp.Response), nil
}

// SendMessage handles a message typed by the user. Blank input is ignored.
// While a quiz is active the message is first offered as an answer; when it
// is not one, it is handled as ordinary chat.
func (m *Manager) SendMessage(ctx context.Context, text string) ([]Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}

	events := []Event{s.append(Message{Content: markup.Escape(text), Sender: SenderUser})}

	if s.quiz != nil {
		if out, ok := m.quiz.Submit(ctx, s.quiz, text); ok {
			for _, msg := range out.Messages {
				events = append(events, s.append(Message{Content: msg, Sender: SenderAssistant}))
			}
			if !out.Completed {
				return events, nil
			}
			s.quiz = nil
			events = append(events, Event{Kind: QuizChanged, QuizActive: false})
			if out.ProgressUpdated {
				s.Progress = out.Progress
				events = append(events, Event{Kind: ProgressChanged, Progress: out.Progress})
			}
			return events, out.ProgressErr
		}
	}

	switch DetectIntent(text) {
	case IntentQuiz:
		st, msgs, err := m.quiz.Start(ctx, s.Topic)
		if err != nil {
			return events, err
		}
		s.quiz = st
		for _, msg := range msgs {
			events = append(events, s.append(Message{Content: msg, Sender: SenderAssistant}))
		}
		return append(events, Event{Kind: QuizChanged, QuizActive: true}), nil

	case IntentResources:
		res, err := m.data.Resources(ctx, s.Topic)
		if err != nil {
			return events, err
		}
		return append(events, s.append(Message{Content: renderResources(res), Sender: SenderAssistant})), nil
	}

	resp, err := m.backend.Chat(ctx, api.ChatRequest{Message: text, Topic: s.Topic})
	if err != nil {
		return events, err
	}
	return append(events, m.appendReplies(s, resp.Response)...), nil
}

// SaveAndReset saves the transcript and returns to the topic list. Local
// state is cleared even when the save fails; the failure is returned.
func (m *Manager) SaveAndReset(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}
	_, saveErr := m.flush(ctx, s)
	if saveErr != nil {
		m.logger.Printf("chat: %v", saveErr)
	}
	events := []Event{
		{Kind: QuizChanged, QuizActive: false},
		{Kind: ViewChanged, View: ViewTopics},
	}
	return append(events, m.refreshHistory(ctx)...), saveErr
}

// LoadSavedChat saves the current transcript, then replaces it with rec.
func (m *Manager) LoadSavedChat(ctx context.Context, rec api.SavedChat) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}
	events := m.flushWithNotice(ctx, s)

	st, err := decodeQuiz(rec.QuizState)
	if err != nil {
		m.logger.Printf("chat: chat %s: %v", rec.ID, err)
	}
	s.Topic = rec.Topic
	s.transcript = decodeTranscript(rec.Messages)
	s.quiz = st
	s.dirty = false
	s.Subtopics = nil
	if t, err := topic.Get(rec.Topic); err == nil {
		s.Subtopics = t.Subtopics
	}

	events = append(events, Event{Kind: ViewChanged, View: ViewChat, Topic: rec.Topic})
	for _, msg := range s.transcript {
		events = append(events, Event{Kind: MessageAppended, Message: msg})
	}
	if len(s.Subtopics) > 0 {
		events = append(events, Event{Kind: SubtopicsOffered, Subtopics: append([]string(nil), s.Subtopics...)})
	}
	return append(events, Event{Kind: QuizChanged, QuizActive: st != nil}), nil
}

// RefreshHistory reloads the saved chat list.
func (m *Manager) RefreshHistory(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.active(); err != nil {
		return nil, err
	}
	history, err := m.backend.History(ctx)
	if err != nil {
		return nil, err
	}
	return []Event{{Kind: HistoryLoaded, History: history}}, nil
}

// RefreshProgress reloads the progress score.
func (m *Manager) RefreshProgress(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.active()
	if err != nil {
		return nil, err
	}
	p, err := m.backend.Progress(ctx)
	if err != nil {
		return nil, err
	}
	s.Progress = p
	return []Event{{Kind: ProgressChanged, Progress: p}}, nil
}

func (m *Manager) active() (*Session, error) {
	if m.session == nil {
		return nil, ErrNotLoggedIn
	}
	return m.session, nil
}

// flush saves the transcript if it has unsaved messages and resets the
// session to Idle either way.
func (m *Manager) flush(ctx context.Context, s *Session) (saved bool, err error) {
	defer s.reset()
	if len(s.transcript) == 0 || !s.dirty {
		return false, nil
	}

	state, err := encodeQuiz(s.quiz)
	if err != nil {
		return false, &failure.PersistenceError{Op: "save chat", Err: err}
	}
	req := api.SaveChatRequest{
		Topic:     s.Topic,
		Messages:  encodeTranscript(s.transcript),
		QuizState: state,
	}
	if _, err := m.backend.SaveChat(ctx, req); err != nil {
		return false, &failure.PersistenceError{Op: "save chat", Err: err}
	}
	return true, nil
}

// flushWithNotice flushes and reports a failed save as a notice.
func (m *Manager) flushWithNotice(ctx context.Context, s *Session) []Event {
	saved, err := m.flush(ctx, s)
	if err != nil {
		m.logger.Printf("chat: %v", err)
		return []Event{noticeEvent(err)}
	}
	if saved {
		return m.refreshHistory(ctx)
	}
	return nil
}

func (m *Manager) refreshHistory(ctx context.Context) []Event {
	history, err := m.backend.History(ctx)
	if err != nil {
		m.logger.Printf("chat: loading history: %v", err)
		return []Event{noticeEvent(err)}
	}
	return []Event{{Kind: HistoryLoaded, History: history}}
}

func (m *Manager) appendReplies(s *Session, replies api.Replies) []Event {
	events := make([]Event, 0, len(replies))
	for _, r := range replies {
		if strings.TrimSpace(r) == "" {
			continue
		}
		events = append(events, s.append(Message{Content: typing.Linkify(r), Sender: SenderAssistant}))
	}
	return events
}

func renderResources(r bank.TopicResources) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are some resources to learn more about %s:\n", html.EscapeString(r.Name))
	for _, res := range r.Resources {
		fmt.Fprintf(&b, "\n<a href=\"%s\" target=\"_blank\">%s</a>",
			html.EscapeString(res.URL), html.EscapeString(res.Title))
		if res.Description != "" {
			b.WriteString(": " + html.EscapeString(res.Description))
		}
	}
	return b.String()
}
