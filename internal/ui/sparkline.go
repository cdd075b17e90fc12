package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width values scaled between their
// min and max. A flat series sits on the middle level.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal
	for _, v := range data {
		level := numLevels / 2
		if valueRange > 0 {
			level = int((v - minVal) / valueRange * float64(numLevels-1))
			level = max(0, min(level, numLevels-1))
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}
	return sb.String()
}

// RenderScoreSparkline colors the sparkline by the sign of the latest score.
func RenderScoreSparkline(scores []float64, width int) string {
	line := RenderSparkline(scores, width)
	if line == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(scoreColor(scores[len(scores)-1])).Render(line)
}

func scoreColor(score float64) lipgloss.Color {
	switch {
	case score > 0:
		return ColorSuccess
	case score < 0:
		return ColorError
	default:
		return ColorMuted
	}
}
