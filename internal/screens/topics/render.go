package topics

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/quiz"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/theme"
)

const headingCompact = "T U T O R C H A T"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	// Leave room for cabinet border (2) + inner padding (4)
	w := frameWidth - 6
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderHeading(cw int) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		theme.Title.Width(cw).Render(headingCompact),
		theme.Subtitle.Width(cw).Render("Pick a topic to start learning"),
	)
}

// renderStatsBar renders the progress bar and level in a bordered box
// matching content width.
func renderStatsBar(progress, cw int, compact bool) string {
	level := quiz.Level(progress)
	levelStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	label := strings.ToUpper(level)
	if compact {
		label = string([]rune(label)[:1])
	}
	bar := components.NewProgressBar("", float64(progress)/100, true, cw-len(label)-8)
	stats := fmt.Sprintf("%s  %s", levelStyle.Render(label), bar.View())

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2). // account for border chars
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// renderDescription shows the blurb of the highlighted topic.
func renderDescription(text string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true).
		Width(cw).
		Align(lipgloss.Center).
		Render(text)
}

func renderMascotBox(v MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(v))
}

// renderCabinetFrame wraps content in a double-border frame, centering
// it vertically and horizontally within the given dimensions.
func renderCabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).   // account for border chars
		Height(height - 2). // account for border chars
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
