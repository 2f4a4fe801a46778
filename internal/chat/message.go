package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/quiz"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ParseSender maps a stored sender label to a Sender. The web client
// stored assistant messages as "ai"; anything that is not "user" is the
// assistant.
func ParseSender(s string) Sender {
	if strings.EqualFold(strings.TrimSpace(s), string(SenderUser)) {
		return SenderUser
	}
	return SenderAssistant
}

// Message is one transcript entry. Content is message markup and is kept
// byte-for-byte as received or stored.
type Message struct {
	Content string
	Sender  Sender
}

func encodeTranscript(msgs []Message) []api.WireMessage {
	out := make([]api.WireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = api.WireMessage{Content: m.Content, Sender: string(m.Sender)}
	}
	return out
}

func decodeTranscript(wire []api.WireMessage) []Message {
	out := make([]Message, len(wire))
	for i, w := range wire {
		out[i] = Message{Content: w.Content, Sender: ParseSender(w.Sender)}
	}
	return out
}

func encodeQuiz(s *quiz.State) (json.RawMessage, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// decodeQuiz restores a saved quiz. Finished or malformed states come back
// as nil so the chat resumes without a quiz.
func decodeQuiz(raw json.RawMessage) (*quiz.State, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var s quiz.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode quiz state: %w", err)
	}
	if s.CurrentQuestion == nil || s.Complete() || s.CurrentQuestionIndex > len(s.Questions) {
		return nil, nil
	}
	return &s, nil
}
