package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/failure"
	"github.com/abhisek/tutorchat/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that refresh when they become active
// again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// Opener is the manager operation a chat screen starts with, such as
// opening a topic or loading a saved chat.
type Opener func(ctx context.Context) ([]chat.Event, error)

// Navigator builds the screens of the client so screens can move between
// each other without importing each other.
type Navigator interface {
	Login() Screen
	Topics() Screen
	Chat(title string, open Opener) Screen
	History() Screen
}

// NoticeMsg shows a transient notice in the footer.
type NoticeMsg struct {
	Text string
}

// UserMsg updates the header with the signed-in user. An empty Username
// means nobody is signed in.
type UserMsg struct {
	Username string
}

// ProgressMsg updates the progress shown in the header.
type ProgressMsg struct {
	Progress int
}

// Notice returns a command that reports err as a notice. A nil err
// yields nil.
func Notice(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	text := failure.Notice(err)
	return func() tea.Msg { return NoticeMsg{Text: text} }
}

// Broadcast returns a command forwarding the app-wide parts of events
// (notices, user and progress changes) to the app.
func Broadcast(events []chat.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range events {
		var msg tea.Msg
		switch e.Kind {
		case chat.Notice:
			msg = NoticeMsg{Text: e.Notice}
		case chat.UserChanged:
			um := UserMsg{}
			if e.User != nil {
				um.Username = e.User.Username
			}
			msg = um
		case chat.ProgressChanged:
			msg = ProgressMsg{Progress: e.Progress}
		default:
			continue
		}
		cmds = append(cmds, func() tea.Msg { return msg })
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Sequence(cmds...)
}
