package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/topic"
	"github.com/abhisek/tutorchat/internal/ui/layout"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// Manager is the part of the chat manager the screen uses.
type Manager interface {
	RefreshHistory(ctx context.Context) ([]chat.Event, error)
	LoadSavedChat(ctx context.Context, rec api.SavedChat) ([]chat.Event, error)
}

type historyLoadedMsg struct {
	Events []chat.Event
	Err    error
}

// HistoryScreen lists the saved chats of the user, newest first.
type HistoryScreen struct {
	mgr      Manager
	nav      screen.Navigator
	chats    []api.SavedChat
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Resumer = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(mgr Manager, nav screen.Navigator) *HistoryScreen {
	return &HistoryScreen{
		mgr:      mgr,
		nav:      nav,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.RefreshHistory(context.Background())
		return historyLoadedMsg{Events: events, Err: err}
	}
}

// Resume reloads the list, which changes when the reopened chat grew.
func (s *HistoryScreen) Resume() tea.Cmd {
	return s.Init()
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "Space", Description: "Preview"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

// Chats returns the loaded records.
func (s *HistoryScreen) Chats() []api.SavedChat { return s.chats }

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = "Failed to load chat history"
			return s, screen.Notice(msg.Err)
		}
		s.errMsg = ""
		for _, e := range msg.Events {
			if e.Kind == chat.HistoryLoaded {
				s.chats = e.History
			}
		}
		if s.selected >= len(s.chats) {
			s.selected = max(len(s.chats)-1, 0)
		}
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.chats)-1 {
				s.selected++
			}
			return s, nil
		case "space":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		case "enter":
			return s, s.open()
		}
	}
	return s, nil
}

func (s *HistoryScreen) open() tea.Cmd {
	if s.selected >= len(s.chats) {
		return nil
	}
	rec := s.chats[s.selected]
	mgr := s.mgr
	c := s.nav.Chat(topic.Name(rec.Topic), func(ctx context.Context) ([]chat.Event, error) {
		return mgr.LoadSavedChat(ctx, rec)
	})
	return func() tea.Msg { return router.PushScreenMsg{Screen: c} }
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.chats) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No chat history yet")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, rec := range s.chats {
		dateStr := rec.Timestamp
		if t := rec.Time(); !t.IsZero() {
			dateStr = t.Format("Jan 02, 2006 15:04")
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%-28s  %s  %d messages", prefix, topic.Name(rec.Topic), dateStr, len(rec.Messages))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
					Render("    "+rec.Preview)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
