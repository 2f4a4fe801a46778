package welcome

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 300 * time.Millisecond
	phase2End    = 800 * time.Millisecond
	totalDur     = 1500 * time.Millisecond
)

const mascotArt = `  ╭─────────────╮
  │  ┌───────┐  │
  │  │ ◉   ◉ │  │
  │  │   ▽   │  │
  │  ├───────┤  │
  │  │ A B C │  │
  │  └───────┘  │
  ╰──────┬──────╯
         ╰─ ?`

// sparkle frames cycle around the mascot
var sparkleFrames = []string{"★", "✦"}

type tickMsg time.Time

type restoredMsg struct {
	Events []chat.Event
	Err    error
}

// WelcomeScreen shows a splash animation while the saved session is
// checked, then hands over to the topics screen or the login screen.
type WelcomeScreen struct {
	restore screen.Opener
	next    func(signedIn bool) screen.Screen

	elapsed   time.Duration
	tickCount int

	restored     bool
	signedIn     bool
	events       []chat.Event
	restoreErr   error
	skip         bool
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen. restore resumes a saved session; next
// builds the screen to show once it has answered.
func New(restore screen.Opener, next func(signedIn bool) screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{restore: restore, next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	restore := w.restore
	return tea.Batch(
		tick(),
		func() tea.Msg {
			events, err := restore(context.Background())
			return restoredMsg{Events: events, Err: err}
		},
	)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		if cmd := w.maybeTransition(); cmd != nil {
			return w, cmd
		}
		return w, tick()

	case restoredMsg:
		w.restored = true
		w.events = msg.Events
		w.restoreErr = msg.Err
		for _, e := range msg.Events {
			if e.Kind == chat.UserChanged && e.User != nil {
				w.signedIn = true
			}
		}
		return w, w.maybeTransition()

	case tea.KeyPressMsg:
		w.skip = true
		return w, w.maybeTransition()
	}

	return w, nil
}

// maybeTransition moves on once the session check has answered and the
// animation has played or been skipped.
func (w *WelcomeScreen) maybeTransition() tea.Cmd {
	if w.transitioned || !w.restored {
		return nil
	}
	if !w.skip && w.elapsed < totalDur {
		return nil
	}
	w.transitioned = true

	nextScreen := w.next(w.signedIn)
	return tea.Sequence(
		screen.Broadcast(w.events),
		screen.Notice(w.restoreErr),
		func() tea.Msg { return router.ReplaceScreenMsg{Screen: nextScreen} },
	)
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	mascotStyle := lipgloss.NewStyle().Foreground(theme.Primary)
	rendered := mascotStyle.Render(mascotArt)

	if w.elapsed >= phase1End {
		frame := w.tickCount % len(sparkleFrames)
		sparkle := sparkleFrames[frame]

		s1 := lipgloss.NewStyle().Foreground(theme.Accent).Render(sparkle)
		s2 := lipgloss.NewStyle().Foreground(theme.Secondary).Render(sparkle)

		lines := strings.Split(rendered, "\n")
		if len(lines) > 1 {
			lines[0] = s1 + "  " + lines[0] + "  " + s2
		}
		if len(lines) > 3 {
			lines[3] = s2 + "  " + lines[3] + "  " + s1
		}
		if len(lines) > 6 {
			lines[6] = s1 + "  " + lines[6] + "  " + s2
		}
		rendered = strings.Join(lines, "\n")
	}

	sections = append(sections, rendered)

	if w.elapsed >= phase2End {
		sections = append(sections, "", RenderBanner(width), "")

		tagline := lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Learn AI, one question at a time.")
		sections = append(sections, tagline)

		status := "checking your session..."
		if w.restored {
			status = "press any key to continue"
		}
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render(status))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
