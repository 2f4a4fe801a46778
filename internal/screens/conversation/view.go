package conversation

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

func (s *ConversationScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.loading {
		return renderLoading(width)
	}

	var bottom []string
	bottom = append(bottom, s.renderStatus())
	if len(s.subtopics.Labels) > 0 && !s.quizActive {
		bottom = append(bottom, s.subtopics.View(width-4))
	}
	bottom = append(bottom, s.input.View())
	footer := lipgloss.NewStyle().PaddingLeft(2).Render(strings.Join(bottom, "\n"))

	rule := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0)))

	vpHeight := height - lipgloss.Height(footer) - 1
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(max(vpHeight, 1))
	s.viewport.SetContent(s.renderTranscript(width - 4))
	if s.follow {
		s.viewport.GotoBottom()
	}

	return s.viewport.View() + "\n" + "  " + rule + "\n" + footer
}

// renderTranscript renders every entry with its sender label, plus the
// pending echo of the message being sent.
func (s *ConversationScreen) renderTranscript(width int) string {
	body := lipgloss.NewStyle().Width(max(width, 10)).Foreground(theme.Text)

	var b strings.Builder
	write := func(label, text string) {
		b.WriteString("  " + label + "\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(body.Render(text)))
		b.WriteString("\n\n")
	}

	for i, e := range s.entries {
		if e.message.Sender == chat.SenderUser {
			write(theme.UserLabel.Render("You"), markup.Render(e.shown, markup.PlainLink))
			continue
		}
		if e.shown == "" && s.current != nil && s.current.index == i {
			write(theme.AssistantLabel.Render("Tutor"), theme.Hint.Render("typing..."))
			continue
		}
		if e.shown == "" {
			// Queued behind the running reveal.
			continue
		}
		write(theme.AssistantLabel.Render("Tutor"), markup.Render(e.shown, markup.PlainLink))
	}
	if s.pending != "" {
		write(theme.UserLabel.Render("You"), s.pending)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *ConversationScreen) renderStatus() string {
	switch {
	case s.left:
		return theme.Hint.Render("Saving chat...")
	case s.busy:
		return theme.Hint.Render("Tutor is thinking...")
	case s.quizActive:
		return lipgloss.NewStyle().Foreground(theme.Accent).Render("Quiz in progress: press 1-4 or A-D, or type your answer")
	case s.subtopics.Focused:
		return theme.Hint.Render("←/→ choose a subtopic, Enter to explore, Tab to type")
	}
	return theme.Hint.Render(fmt.Sprintf("%d messages", len(s.entries)))
}

// renderLoading renders the loading state.
func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Opening chat...")
}

// renderError renders an error message.
func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press Esc to go back.", errMsg))
}
