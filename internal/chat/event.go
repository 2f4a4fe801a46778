package chat

import (
	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/failure"
)

// View is a top-level screen of the client.
type View int

const (
	ViewAuth View = iota
	ViewTopics
	ViewChat
)

// EventKind says which fields of an Event are set.
type EventKind int

const (
	// MessageAppended carries Message; Animate asks for the typing reveal.
	MessageAppended EventKind = iota
	// SubtopicsOffered carries Subtopics for the current topic.
	SubtopicsOffered
	// ViewChanged carries View and, for ViewChat, Topic.
	ViewChanged
	// HistoryLoaded carries History.
	HistoryLoaded
	// ProgressChanged carries Progress.
	ProgressChanged
	// QuizChanged carries QuizActive.
	QuizChanged
	// UserChanged carries User, nil after logout.
	UserChanged
	// Notice carries Notice, a secondary failure that did not stop the
	// operation.
	Notice
)

// Event describes one observable change made by a Manager operation.
type Event struct {
	Kind EventKind

	Message    Message
	Animate    bool
	Subtopics  []string
	View       View
	Topic      string
	History    []api.SavedChat
	Progress   int
	QuizActive bool
	User       *api.User
	Notice     string
}

func noticeEvent(err error) Event {
	return Event{Kind: Notice, Notice: failure.Notice(err)}
}
