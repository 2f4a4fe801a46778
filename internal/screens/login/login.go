// Package login is the sign-in screen: log in to an existing account or
// register a new one.
package login

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/failure"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/layout"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// Mode is the form the screen shows.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "Register"
	}
	return "Login"
}

type loginDoneMsg struct {
	Events []chat.Event
	Err    error
}

type registerDoneMsg struct {
	Message string
	Err     error
}

// Accounts is the part of the chat manager the screen uses.
type Accounts interface {
	Login(ctx context.Context, username, password string) ([]chat.Event, error)
	Register(ctx context.Context, username, password string) (string, error)
}

// LoginScreen collects credentials.
type LoginScreen struct {
	accounts Accounts
	nav      screen.Navigator

	mode     Mode
	username components.TextInput
	password components.TextInput
	focus    int // 0 username, 1 password
	busy     bool
	errMsg   string
	info     string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a LoginScreen.
func New(accounts Accounts, nav screen.Navigator) *LoginScreen {
	u := components.NewTextInput("Username", "your username", 64)
	u.SetWidth(30)
	p := components.NewPasswordInput("Password", "your password")
	p.SetWidth(30)
	return &LoginScreen{
		accounts: accounts,
		nav:      nav,
		username: u,
		password: p,
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.username.Init()
}

func (s *LoginScreen) Title() string {
	return s.mode.String()
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	other := ModeRegister
	if s.mode == ModeRegister {
		other = ModeLogin
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: s.mode.String()},
		{Key: "Tab", Description: "Next field"},
		{Key: "Ctrl+R", Description: "Switch to " + other.String()},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Mode returns the form being shown.
func (s *LoginScreen) Mode() Mode { return s.mode }

// Busy reports whether a request is in flight.
func (s *LoginScreen) Busy() bool { return s.busy }

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = failure.Notice(msg.Err)
			s.password.Reset()
			return s, nil
		}
		topics := s.nav.Topics()
		return s, tea.Sequence(
			screen.Broadcast(msg.Events),
			func() tea.Msg { return router.ReplaceScreenMsg{Screen: topics} },
		)

	case registerDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = failure.Notice(msg.Err)
			return s, nil
		}
		s.errMsg = ""
		s.info = msg.Message
		s.mode = ModeLogin
		s.password.Reset()
		return s, s.focusField(1)

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	return s, s.updateFocused(msg)
}

func (s *LoginScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.busy {
		return s, nil
	}

	switch msg.String() {
	case "enter":
		if s.focus == 0 && s.password.Value() == "" {
			return s, s.focusField(1)
		}
		return s, s.submit()
	case "tab", "down":
		return s, s.focusField((s.focus + 1) % 2)
	case "shift+tab", "up":
		return s, s.focusField((s.focus + 1) % 2)
	case "ctrl+r":
		if s.mode == ModeLogin {
			s.mode = ModeRegister
		} else {
			s.mode = ModeLogin
		}
		s.errMsg = ""
		s.info = ""
		return s, nil
	}

	s.errMsg = ""
	return s, s.updateFocused(msg)
}

func (s *LoginScreen) focusField(i int) tea.Cmd {
	s.focus = i
	if i == 0 {
		s.password.Blur()
		return s.username.Focus()
	}
	s.username.Blur()
	return s.password.Focus()
}

func (s *LoginScreen) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if s.focus == 0 {
		s.username, cmd = s.username.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return cmd
}

// submit validates locally, then runs the request in the background.
func (s *LoginScreen) submit() tea.Cmd {
	username := strings.TrimSpace(s.username.Value())
	password := s.password.Value()
	if username == "" || password == "" {
		s.errMsg = "Please enter both username and password"
		return nil
	}

	s.busy = true
	s.errMsg = ""
	s.info = ""
	accounts := s.accounts
	if s.mode == ModeRegister {
		return func() tea.Msg {
			text, err := accounts.Register(context.Background(), username, password)
			return registerDoneMsg{Message: text, Err: err}
		}
	}
	return func() tea.Msg {
		events, err := accounts.Login(context.Background(), username, password)
		return loginDoneMsg{Events: events, Err: err}
	}
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder

	tabs := []string{}
	for _, m := range []Mode{ModeLogin, ModeRegister} {
		style := theme.ButtonInactive
		if m == s.mode {
			style = theme.ButtonActive
		}
		tabs = append(tabs, style.Render(m.String()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	b.WriteString(s.username.View())
	b.WriteString("\n\n")
	b.WriteString(s.password.View())
	b.WriteString("\n\n")

	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Please wait..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	case s.info != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Render(s.info))
	}

	card := theme.Card.Width(56).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
