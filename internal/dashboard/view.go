package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/ui"
)

// maxInstrumentRows caps the instrument list before it scrolls.
const maxInstrumentRows = 10

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.state
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(recommendationBadge(st.Recommendation))
	b.WriteString("   ")
	b.WriteString(strings.Join([]string{
		ledView("Renko", st.LEDs.Renko),
		ledView("LR", st.LEDs.LR),
		ledView("MACD", st.LEDs.MACD),
	}, "   "))
	b.WriteString("\n\n")

	left := PanelStyle.Render(m.renderFields())
	right := PanelStyle.Render(m.renderInstruments())
	if m.width >= 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	} else {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	}
	b.WriteString("\n")

	if len(st.Reasons) > 0 {
		b.WriteString(MutedStyle.Render("reasons: " + strings.Join(st.Reasons, "; ")))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(FlashStyle.Render(m.flash))
		b.WriteString("\n")
	}

	b.WriteString(FooterStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderHeader() string {
	st := m.state
	status := connStyle(st.Conn).Render(st.Conn.String())
	if st.Conn == conn.Connecting || st.RetryPending {
		status = m.spinner.View() + " " + status
	}

	parts := []string{HeaderStyle.Render("sigmon"), status}
	if st.Endpoint != "" {
		parts = append(parts, MutedStyle.Render(st.Endpoint))
	}
	if st.Status != "" {
		parts = append(parts, ValueStyle.Render(st.Status))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderFields() string {
	st := m.state
	rows := [][2]string{
		{"Ticker", st.Ticker},
		{"Time", st.Time},
		{"Price", st.Price},
		{"Score", st.Score},
		{"Confidence", st.Confidence},
		{"Brick", st.Brick},
		{"Next up", st.NextUp},
		{"Next down", st.NextDown},
		{"Renko", st.RenkoInfo},
		{"LR", st.LRInfo},
		{"MACD", st.MACDInfo},
		{"Trend", trend(st.History)},
	}
	if st.BackfillRows > 0 {
		rows = append(rows, [2]string{"Backfill", fmt.Sprintf("%d rows", st.BackfillRows)})
	}
	if st.StagedDirty {
		rows = append(rows, [2]string{"Params", "staged changes pending (p to apply)"})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, LabelStyle.Render(r[0])+ValueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderInstruments() string {
	items := m.state.Instruments
	if len(items) == 0 {
		return MutedStyle.Render("no instruments")
	}

	start := 0
	if m.selected >= maxInstrumentRows {
		start = m.selected - maxInstrumentRows + 1
	}
	end := min(start+maxInstrumentRows, len(items))

	lines := []string{LabelStyle.UnsetWidth().Render("Instruments")}
	for i := start; i < end; i++ {
		in := items[i]
		line := in.Ticker
		if in.DisplayName != "" && in.DisplayName != in.Ticker {
			line += " " + MutedStyle.Render(in.DisplayName)
		}
		if in.HasArchive {
			line += " " + MutedStyle.Render("[archive]")
		}
		if in.Ticker == m.state.Ticker {
			line += " *"
		}
		if i == m.selected {
			line = SelectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func trend(history []float64) string {
	if len(history) == 0 {
		return client.Placeholder
	}
	return ui.RenderScoreSparkline(history, 40)
}
