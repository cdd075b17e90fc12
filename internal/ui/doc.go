// Package ui provides terminal output components for sigmon's one-shot
// commands: a line spinner, the endpoint failover display, and the score
// sparkline shared with the dashboard.
//
// Colors are ANSI codes so they degrade cleanly; the active lipgloss color
// profile decides whether they render at all (see --no-color).
package ui
