package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// GradientColors are cycled through by the spinner.
var GradientColors = []lipgloss.Color{"#FF2E97", "#B967FF", "#01CDFE", "#39FF14"}

// Status symbols
const (
	SymbolFail     = "✗"
	SymbolPending  = "○"
	SymbolComplete = "●"
)
