package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// ButtonRow is a horizontal row of buttons. The selected button is only
// highlighted while the row has focus.
type ButtonRow struct {
	Labels   []string
	Selected int
	Focused  bool
}

// NewButtonRow creates an unfocused row.
func NewButtonRow(labels []string) ButtonRow {
	return ButtonRow{Labels: labels}
}

// Next moves the selection right, wrapping around.
func (r *ButtonRow) Next() {
	if len(r.Labels) > 0 {
		r.Selected = (r.Selected + 1) % len(r.Labels)
	}
}

// Prev moves the selection left, wrapping around.
func (r *ButtonRow) Prev() {
	if len(r.Labels) > 0 {
		r.Selected = (r.Selected - 1 + len(r.Labels)) % len(r.Labels)
	}
}

// Current returns the selected label.
func (r ButtonRow) Current() (string, bool) {
	if r.Selected < 0 || r.Selected >= len(r.Labels) {
		return "", false
	}
	return r.Labels[r.Selected], true
}

// View renders the row, wrapping onto further lines past width.
func (r ButtonRow) View(width int) string {
	var lines []string
	var line string
	for i, label := range r.Labels {
		style := theme.ButtonInactive
		if r.Focused && i == r.Selected {
			style = theme.ButtonActive
		}
		b := style.Render("[" + label + "]")
		if line != "" && lipgloss.Width(line)+lipgloss.Width(b) > width {
			lines = append(lines, line)
			line = ""
		}
		line += b
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
