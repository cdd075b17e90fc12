package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/indicator"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

// Dashboard color palette
const (
	ColorBorder = lipgloss.Color("#2A2A4A")

	ColorUp      = lipgloss.Color("#39FF14")
	ColorWarning = lipgloss.Color("#FFAA00")
	ColorDown    = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Width(12)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FlashStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.Color("#0A0A0F"))
)

// LED glyphs
const (
	GlyphUp   = "▲"
	GlyphDown = "▼"
	GlyphFlat = "●"
)

func ledView(name string, l indicator.LED) string {
	glyph, color := GlyphFlat, ColorTextMuted
	switch l {
	case indicator.Up:
		glyph, color = GlyphUp, ColorUp
	case indicator.Down:
		glyph, color = GlyphDown, ColorDown
	}
	return lipgloss.NewStyle().Foreground(color).Render(glyph) + " " + LabelStyle.UnsetWidth().Render(name)
}

func recommendationBadge(rec string) string {
	bg := ColorTextMuted
	switch rec {
	case protocol.RecLong:
		bg = ColorUp
	case protocol.RecShort:
		bg = ColorDown
	case protocol.RecFlat:
		bg = ColorTextSecondary
	}
	return badgeStyle.Background(bg).Render(rec)
}

func connStyle(s conn.State) lipgloss.Style {
	switch s {
	case conn.Open:
		return lipgloss.NewStyle().Foreground(ColorUp)
	case conn.Connecting:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case conn.Error:
		return lipgloss.NewStyle().Foreground(ColorDown)
	default:
		return lipgloss.NewStyle().Foreground(ColorTextMuted)
	}
}
