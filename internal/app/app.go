// Package app is the root Bubble Tea model of the terminal client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/screens/conversation"
	"github.com/abhisek/tutorchat/internal/screens/history"
	"github.com/abhisek/tutorchat/internal/screens/login"
	"github.com/abhisek/tutorchat/internal/screens/topics"
	"github.com/abhisek/tutorchat/internal/screens/welcome"
	"github.com/abhisek/tutorchat/internal/ui/layout"
)

// NoticeDuration is how long a notice stays in the footer.
const NoticeDuration = 3 * time.Second

// Manager is everything the screens need from the chat manager.
type Manager interface {
	login.Accounts
	topics.Manager
	history.Manager
	conversation.Manager
	Restore(ctx context.Context) ([]chat.Event, error)
}

type noticeExpiredMsg struct {
	ID int
}

// status is the app-wide state shown in the header and footer.
type status struct {
	username string
	progress int
	notice   string
	noticeID int
}

// navigator builds screens for the router.
type navigator struct {
	mgr    Manager
	status *status
}

var _ screen.Navigator = (*navigator)(nil)

func (n *navigator) Login() screen.Screen {
	return login.New(n.mgr, n)
}

func (n *navigator) Topics() screen.Screen {
	return topics.New(n.mgr, n, n.status.progress)
}

func (n *navigator) Chat(title string, open screen.Opener) screen.Screen {
	return conversation.New(n.mgr, title, open)
}

func (n *navigator) History() screen.Screen {
	return history.New(n.mgr, n)
}

func (n *navigator) Welcome() screen.Screen {
	return welcome.New(n.mgr.Restore, func(signedIn bool) screen.Screen {
		if signedIn {
			return n.Topics()
		}
		return n.Login()
	})
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	mgr    Manager
	status *status
	logger *log.Logger
	width  int
	height int
}

// newAppModel creates a new AppModel starting at the welcome screen.
func newAppModel(mgr Manager, logger *log.Logger) AppModel {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	st := &status{}
	nav := &navigator{mgr: mgr, status: st}
	return AppModel{
		router: router.New(nav.Welcome()),
		mgr:    mgr,
		status: st,
		logger: logger,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}

	case screen.NoticeMsg:
		if msg.Text == "" {
			return m, nil
		}
		m.logger.Printf("notice: %s", msg.Text)
		m.status.notice = msg.Text
		m.status.noticeID++
		id := m.status.noticeID
		return m, tea.Tick(NoticeDuration, func(time.Time) tea.Msg { return noticeExpiredMsg{ID: id} })

	case noticeExpiredMsg:
		if msg.ID == m.status.noticeID {
			m.status.notice = ""
		}
		return m, nil

	case screen.UserMsg:
		m.status.username = msg.Username
		if msg.Username == "" {
			m.status.progress = 0
		}
		return m, nil

	case screen.ProgressMsg:
		m.status.progress = msg.Progress
		// The topics screen keeps its own copy.
		return m, m.router.Update(msg)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// quit saves an open chat before exiting.
func (m AppModel) quit() tea.Cmd {
	mgr := m.mgr
	logger := m.logger
	save := func() tea.Msg {
		if _, err := mgr.SaveAndReset(context.Background()); err != nil && !errors.Is(err, chat.ErrNotLoggedIn) {
			logger.Printf("app: saving on exit: %v", err)
		}
		return nil
	}
	return tea.Sequence(save, tea.Quit)
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the frame for the current terminal size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	var hints []layout.KeyHint
	if active != nil {
		title = active.Title()
		if hp, ok := active.(screen.KeyHintProvider); ok {
			hints = hp.KeyHints()
		}
	}
	if hints == nil {
		hints = []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	}

	header := layout.RenderHeader(title, m.status.username, m.status.progress, m.width)
	footer := layout.RenderFooter(hints, m.status.notice, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program.
func Run(mgr Manager, logger *log.Logger) error {
	p := tea.NewProgram(newAppModel(mgr, logger))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
