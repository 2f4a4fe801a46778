package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// User is the account summary returned by login and check-session.
type User struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username"`
	Level    string `json:"level,omitempty"`
}

// Key is the identifier sent in the user-id header. Older backends omit
// the ID, so the username stands in.
func (u User) Key() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Username
}

// Credentials is the login and register request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
	Error   string `json:"error"`
}

// ChatRequest is the /api/chat body. An empty Message asks for the topic
// introduction.
type ChatRequest struct {
	Message   string          `json:"message,omitempty"`
	Topic     string          `json:"topic"`
	QuizState json.RawMessage `json:"quiz_state,omitempty"`
}

// ChatResponse is the /api/chat reply.
type ChatResponse struct {
	Response      Replies         `json:"response"`
	Subtopics     []string        `json:"subtopics,omitempty"`
	QuizState     json.RawMessage `json:"quiz_state,omitempty"`
	QuizCompleted bool            `json:"quiz_completed,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Replies is the response field of a chat reply, which the backend sends
// as a single string, a list of strings, or a list of {response} objects.
type Replies []string

func (r *Replies) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = Replies{one}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("response: expected string or list: %w", err)
	}
	out := make(Replies, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("response item: %w", err)
		}
		out = append(out, obj.Response)
	}
	*r = out
	return nil
}

// WireMessage is a transcript entry as stored by save-chat.
type WireMessage struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// SavedChat is one history record.
type SavedChat struct {
	ID        string          `json:"_id"`
	Topic     string          `json:"topic"`
	Preview   string          `json:"preview"`
	Timestamp string          `json:"timestamp"`
	Messages  []WireMessage   `json:"messages"`
	QuizState json.RawMessage `json:"quiz_state"`
}

// TimestampLayout is the format of SavedChat.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Time parses the record timestamp. The zero time is returned when the
// backend sent something else.
func (c SavedChat) Time() time.Time {
	t, err := time.ParseInLocation(TimestampLayout, c.Timestamp, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveChatRequest is the /api/save-chat body. A nil QuizState is sent as
// null.
type SaveChatRequest struct {
	Topic     string          `json:"topic"`
	Messages  []WireMessage   `json:"messages"`
	QuizState json.RawMessage `json:"quiz_state"`
}

type historyResponse struct {
	History []SavedChat `json:"history"`
}

type saveChatResponse struct {
	Success bool       `json:"success"`
	Chat    *SavedChat `json:"chat"`
	Error   string     `json:"error"`
}

// progressValue decodes the progress field, which is an integer or, from
// older backends, a per-topic map whose numeric values are averaged.
type progressValue int

func (p *progressValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = progressValue(n)
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("progress: expected number or object: %w", err)
	}
	var sum float64
	var count int
	for _, v := range m {
		if f, ok := v.(float64); ok {
			sum += f
			count++
		}
	}
	if count > 0 {
		*p = progressValue(sum / float64(count))
	} else {
		*p = 0
	}
	return nil
}

type progressResponse struct {
	Progress progressValue `json:"progress"`
	Level    string        `json:"level"`
}

type updateProgressRequest struct {
	Score int `json:"score"`
}

type updateProgressResponse struct {
	Success  bool          `json:"success"`
	Progress progressValue `json:"progress"`
}

type checkSessionResponse struct {
	User *User `json:"user"`
}

// errorBody covers the error shapes the backend uses.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}
