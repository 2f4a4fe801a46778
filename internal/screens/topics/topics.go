// Package topics is the home screen of a signed-in user: the topic
// catalog, the progress score and the way to history and logout.
package topics

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/quiz"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/topic"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/layout"
)

// Manager is the part of the chat manager the screen uses.
type Manager interface {
	RefreshProgress(ctx context.Context) ([]chat.Event, error)
	OpenTopic(ctx context.Context, topicID string) ([]chat.Event, error)
	Logout(ctx context.Context) ([]chat.Event, error)
}

type progressLoadedMsg struct {
	Events []chat.Event
	Err    error
}

type loggedOutMsg struct {
	Events []chat.Event
}

// TopicsScreen lists the catalog.
type TopicsScreen struct {
	mgr      Manager
	nav      screen.Navigator
	menu     components.Menu
	catalog  []topic.Topic
	progress int
	leaving  bool
}

var _ screen.Screen = (*TopicsScreen)(nil)
var _ screen.KeyHintProvider = (*TopicsScreen)(nil)
var _ screen.Resumer = (*TopicsScreen)(nil)

// New creates a TopicsScreen showing progress until a fresh value loads.
func New(mgr Manager, nav screen.Navigator, progress int) *TopicsScreen {
	s := &TopicsScreen{
		mgr:      mgr,
		nav:      nav,
		catalog:  topic.All(),
		progress: progress,
	}

	var items []components.MenuItem
	for _, t := range s.catalog {
		items = append(items, components.MenuItem{Label: t.Name, Action: s.open(t)})
	}
	items = append(items,
		components.MenuItem{Label: "HISTORY", Action: func() tea.Cmd {
			h := nav.History()
			return func() tea.Msg { return router.PushScreenMsg{Screen: h} }
		}},
		components.MenuItem{Label: "LOG OUT", Action: s.logout},
	)
	s.menu = components.NewMenu(items)
	return s
}

func (s *TopicsScreen) open(t topic.Topic) func() tea.Cmd {
	return func() tea.Cmd {
		mgr := s.mgr
		c := s.nav.Chat(t.Name, func(ctx context.Context) ([]chat.Event, error) {
			return mgr.OpenTopic(ctx, t.ID)
		})
		return func() tea.Msg { return router.PushScreenMsg{Screen: c} }
	}
}

func (s *TopicsScreen) logout() tea.Cmd {
	s.leaving = true
	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.Logout(context.Background())
		if err != nil {
			events = append(events, chat.Event{Kind: chat.Notice, Notice: "Logout failed"})
		}
		return loggedOutMsg{Events: events}
	}
}

func (s *TopicsScreen) refresh() tea.Cmd {
	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.RefreshProgress(context.Background())
		return progressLoadedMsg{Events: events, Err: err}
	}
}

func (s *TopicsScreen) Init() tea.Cmd {
	return s.refresh()
}

// Resume reloads progress after a chat or the history screen closes.
func (s *TopicsScreen) Resume() tea.Cmd {
	return s.refresh()
}

func (s *TopicsScreen) Title() string {
	return "Topics"
}

func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑/↓", Description: "Move"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Progress returns the score the screen shows.
func (s *TopicsScreen) Progress() int { return s.progress }

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case progressLoadedMsg:
		if msg.Err != nil {
			return s, screen.Notice(msg.Err)
		}
		s.applyEvents(msg.Events)
		return s, screen.Broadcast(msg.Events)

	case screen.ProgressMsg:
		s.progress = msg.Progress
		return s, nil

	case loggedOutMsg:
		login := s.nav.Login()
		return s, tea.Sequence(
			screen.Broadcast(msg.Events),
			func() tea.Msg { return router.ReplaceScreenMsg{Screen: login} },
		)

	case tea.KeyPressMsg:
		if s.leaving {
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *TopicsScreen) applyEvents(events []chat.Event) {
	for _, e := range events {
		if e.Kind == chat.ProgressChanged {
			s.progress = e.Progress
		}
	}
}

func (s *TopicsScreen) View(width, height int) string {
	compact := layout.IsCompact(width, height)
	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderHeading(cw))
	if !compact {
		sections = append(sections, renderMascotBox(VariantFor(quiz.Level(s.progress)), cw))
	}
	sections = append(sections, renderStatsBar(s.progress, cw, compact))
	sections = append(sections, lipgloss.NewStyle().Width(cw).Render(s.menu.View()))
	if s.menu.Selected < len(s.catalog) {
		sections = append(sections, renderDescription(s.catalog[s.menu.Selected].Description, cw))
	}

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}
