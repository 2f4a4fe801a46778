package chat

import (
	"slices"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/quiz"
)

// Phase is the conversation state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTopicSelected
	PhaseQuizActive
)

func (p Phase) String() string {
	switch p {
	case PhaseTopicSelected:
		return "topic-selected"
	case PhaseQuizActive:
		return "quiz-active"
	default:
		return "idle"
	}
}

// Session is the per-login context: who is logged in, the open topic, its
// transcript and the quiz in flight. It exists from login to logout.
type Session struct {
	User      api.User
	Progress  int
	Topic     string
	Subtopics []string

	transcript []Message
	quiz       *quiz.State
	// dirty is set once a message is appended after the transcript was
	// opened or loaded.
	dirty bool
}

func (s *Session) phase() Phase {
	switch {
	case s.quiz != nil:
		return PhaseQuizActive
	case s.Topic != "" || len(s.transcript) > 0:
		return PhaseTopicSelected
	default:
		return PhaseIdle
	}
}

func (s *Session) append(m Message) Event {
	s.transcript = append(s.transcript, m)
	s.dirty = true
	return Event{Kind: MessageAppended, Message: m, Animate: m.Sender == SenderAssistant}
}

// reset returns the session to Idle.
func (s *Session) reset() {
	s.Topic = ""
	s.Subtopics = nil
	s.transcript = nil
	s.quiz = nil
	s.dirty = false
}

// Snapshot is a read-only copy of a Session.
type Snapshot struct {
	User      api.User
	Progress  int
	Topic     string
	Subtopics []string
	Messages  []Message
	Quiz      *quiz.State
	Phase     Phase
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		User:      s.User,
		Progress:  s.Progress,
		Topic:     s.Topic,
		Subtopics: slices.Clone(s.Subtopics),
		Messages:  slices.Clone(s.transcript),
		Phase:     s.phase(),
	}
	if s.quiz != nil {
		q := *s.quiz
		q.Questions = slices.Clone(q.Questions)
		snap.Quiz = &q
	}
	return snap
}
