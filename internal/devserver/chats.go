package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/topic"
)

// previewLength is how much of the first message a history entry shows.
const previewLength = 50

type chatReply struct {
	Response  string   `json:"response"`
	Subtopics []string `json:"subtopics,omitempty"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if s.requireUser(w, r) == nil {
		return
	}

	var req api.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	tp, err := topic.Get(req.Topic)
	if strings.TrimSpace(req.Message) == "" {
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid topic")
			return
		}
		writeJSON(w, http.StatusOK, chatReply{
			Response:  s.tutor.Intro(r.Context(), tp),
			Subtopics: tp.Subtopics,
		})
		return
	}

	reply, err := s.tutor.Reply(r.Context(), tp, req.Message)
	if err != nil {
		s.logger.Printf("chat: topic=%s: %v", req.Topic, err)
		writeError(w, http.StatusServiceUnavailable, "The tutor is unavailable right now")
		return
	}
	writeJSON(w, http.StatusOK, chatReply{Response: reply})
}

type saveChatRequest struct {
	Topic     string          `json:"topic"`
	Messages  json.RawMessage `json:"messages"`
	QuizState json.RawMessage `json:"quiz_state"`
}

func (s *Server) saveChat(w http.ResponseWriter, r *http.Request) {
	u := s.headerUser(w, r)
	if u == nil {
		return
	}

	var req saveChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return
	}
	var messages []api.WireMessage
	if len(req.Messages) > 0 {
		if err := json.Unmarshal(req.Messages, &messages); err != nil {
			writeError(w, http.StatusBadRequest, "messages must be a list of {content, sender}")
			return
		}
	}

	c := &store.Chat{
		UserID:    u.ID,
		Topic:     req.Topic,
		Preview:   chatPreview(messages),
		Messages:  req.Messages,
		QuizState: req.QuizState,
	}
	if err := s.chats.Save(r.Context(), c); err != nil {
		s.logger.Printf("save-chat: user=%s: %v", u.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save chat")
		return
	}
	s.logger.Printf("saved chat %s with %d messages for %s", c.ID, len(messages), u.Username)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "chat": wireChat(*c)})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	u := s.headerUser(w, r)
	if u == nil {
		return
	}

	chats, err := s.chats.ListByUser(r.Context(), u.ID)
	if err != nil {
		s.logger.Printf("history: user=%s: %v", u.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	history := make([]api.SavedChat, 0, len(chats))
	for _, c := range chats {
		history = append(history, wireChat(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}

	c, err := s.chats.Get(r.Context(), u.ID, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if err != nil {
		s.logger.Printf("get chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load chat")
		return
	}
	wc := wireChat(*c)
	writeJSON(w, http.StatusOK, map[string]any{"topic": wc.Topic, "messages": wc.Messages})
}

// chatPreview is the first message with markup stripped, cut to
// previewLength characters. An empty transcript reads "Empty chat".
func chatPreview(messages []api.WireMessage) string {
	if len(messages) == 0 {
		return "Empty chat"
	}
	return markup.Preview(messages[0].Content, previewLength)
}

func wireChat(c store.Chat) api.SavedChat {
	var messages []api.WireMessage
	if len(c.Messages) > 0 {
		// Stored bodies were validated on save.
		_ = json.Unmarshal(c.Messages, &messages)
	}
	if messages == nil {
		messages = []api.WireMessage{}
	}
	quiz := c.QuizState
	if len(quiz) == 0 {
		quiz = json.RawMessage("null")
	}
	return api.SavedChat{
		ID:        c.ID,
		Topic:     c.Topic,
		Preview:   c.Preview,
		Timestamp: c.CreatedAt.In(time.Local).Format(api.TimestampLayout),
		Messages:  messages,
		QuizState: quiz,
	}
}
