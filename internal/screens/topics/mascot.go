package topics

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorchat/internal/ui/theme"
)

// MascotVariant selects which mascot art to display.
type MascotVariant int

const (
	MascotBeginner     MascotVariant = iota // Default indigo
	MascotIntermediate                      // Teal, reading glasses
	MascotAdvanced                          // Amber, graduation cap
)

const mascotBeginner = `┌─────┐
│ ◉ ◉ │
│  ▽  │
│ ? ! │
└─────┘`

const mascotIntermediate = `┌─────┐
│ ⌐■-■│
│  ▽  │
│ ? ! │
└─────┘`

const mascotAdvanced = `  ▄▄▄
┌─▀▀▀─┐
│ ★ ★ │
│  ▿  │
│ ? ! │
└─────┘`

// VariantFor maps a progress level name to its mascot.
func VariantFor(level string) MascotVariant {
	switch level {
	case "Advanced":
		return MascotAdvanced
	case "Intermediate":
		return MascotIntermediate
	default:
		return MascotBeginner
	}
}

// RenderMascot returns the mascot ASCII art for the given variant.
func RenderMascot(v MascotVariant) string {
	art := mascotBeginner
	fg := theme.Primary

	switch v {
	case MascotIntermediate:
		art = mascotIntermediate
		fg = theme.Secondary
	case MascotAdvanced:
		art = mascotAdvanced
		fg = theme.Accent
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}
