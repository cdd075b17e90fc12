package dashboard

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/conn"
	"github.com/rileyhilliard/sigmon/internal/indicator"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

type fakeController struct {
	calls     []string
	switchErr error
}

func (f *fakeController) Connect() { f.calls = append(f.calls, "connect") }
func (f *fakeController) SwitchTicker(t string) error {
	f.calls = append(f.calls, "switch:"+t)
	return f.switchErr
}
func (f *fakeController) LoadArchive(t string) error {
	f.calls = append(f.calls, "archive:"+t)
	return nil
}
func (f *fakeController) ApplyParams() { f.calls = append(f.calls, "apply") }
func (f *fakeController) ResetStaged() { f.calls = append(f.calls, "reset") }

func liveState() client.State {
	return client.State{
		Conn:           conn.Open,
		Status:         "connected",
		Endpoint:       "ws://a/ws",
		Ticker:         "SBER",
		Time:           "2024-03-01 10:15:00",
		Price:          "281.50",
		Score:          "1.75",
		Confidence:     "0.80",
		Brick:          client.Placeholder,
		NextUp:         client.Placeholder,
		NextDown:       client.Placeholder,
		RenkoInfo:      client.Placeholder,
		LRInfo:         client.Placeholder,
		MACDInfo:       client.Placeholder,
		LEDs:           indicator.LEDs{Renko: indicator.Up, LR: indicator.Flat, MACD: indicator.Down},
		Recommendation: protocol.RecLong,
		Reasons:        []string{"renko up"},
		History:        []float64{0, 1, 2},
		Instruments: []protocol.Instrument{
			{Ticker: "SBER", DisplayName: "Sberbank"},
			{Ticker: "GAZP", DisplayName: "GAZP", HasArchive: true},
		},
	}
}

func newTestModel(st client.State) (Model, *fakeController, chan client.State) {
	ctrl := &fakeController{}
	ch := make(chan client.State, 1)
	return NewModel(ctrl, ch, st), ctrl, ch
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestStateMsgUpdatesModelAndRewaits(t *testing.T) {
	m, _, ch := newTestModel(client.State{})

	next, cmd := m.Update(stateMsg(liveState()))
	m = next.(Model)
	assert.Equal(t, "SBER", m.State().Ticker)
	require.NotNil(t, cmd)

	st := liveState()
	st.Ticker = "GAZP"
	ch <- st
	msg := cmd()
	assert.Equal(t, "GAZP", client.State(msg.(stateMsg)).Ticker)
}

func TestClosedSubscriptionQuits(t *testing.T) {
	m, _, ch := newTestModel(client.State{})
	close(ch)

	msg := waitForState(ch)()
	assert.IsType(t, closedMsg{}, msg)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func TestNavigationAndSwitch(t *testing.T) {
	m, ctrl, _ := newTestModel(liveState())

	m = press(t, m, "k")
	assert.Equal(t, 0, m.selected)

	m = press(t, m, "j")
	m = press(t, m, "j")
	assert.Equal(t, 1, m.selected, "selection stops at the last instrument")

	m = press(t, m, "enter")
	m = press(t, m, "a")
	assert.Equal(t, []string{"switch:GAZP", "archive:GAZP"}, ctrl.calls)
	assert.Equal(t, "loading archive for GAZP", m.flash)
}

func TestSwitchErrorIsFlashed(t *testing.T) {
	m, ctrl, _ := newTestModel(liveState())
	ctrl.switchErr = errors.New("not connected")

	m = press(t, m, "enter")
	assert.Equal(t, "not connected", m.flash)
}

func TestSwitchWithoutInstrumentsDoesNothing(t *testing.T) {
	m, ctrl, _ := newTestModel(client.State{})

	press(t, m, "enter")
	press(t, m, "a")
	assert.Empty(t, ctrl.calls)
}

func TestCommandKeys(t *testing.T) {
	m, ctrl, _ := newTestModel(liveState())

	m = press(t, m, "r")
	m = press(t, m, "p")
	m = press(t, m, "x")
	assert.Equal(t, []string{"connect", "apply", "reset"}, ctrl.calls)
	assert.Equal(t, "staged params discarded", m.flash)
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(liveState())
	assert.False(t, m.showHelp)

	m = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.True(t, m.help.ShowAll)

	m = press(t, m, "?")
	assert.False(t, m.showHelp)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m, _, _ := newTestModel(liveState())
		next, cmd := m.Update(keyFor(k))
		assert.NotNil(t, cmd, k)
		assert.True(t, next.(Model).quitting, k)
	}
}

func keyFor(k string) tea.KeyMsg {
	if k == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestSelectionClampsWhenInstrumentsShrink(t *testing.T) {
	m, _, _ := newTestModel(liveState())
	m = press(t, m, "j")
	require.Equal(t, 1, m.selected)

	st := liveState()
	st.Instruments = st.Instruments[:1]
	next, _ := m.Update(stateMsg(st))
	assert.Equal(t, 0, next.(Model).selected)
}

func TestWindowSize(t *testing.T) {
	m, _, _ := newTestModel(liveState())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	m = next.(Model)
	assert.Equal(t, 140, m.width)
	assert.Equal(t, 50, m.height)
}

func TestViewShowsLiveFields(t *testing.T) {
	m, _, _ := newTestModel(liveState())
	out := m.View()

	for _, want := range []string{"sigmon", "OPEN", "ws://a/ws", "LONG", "SBER", "281.50", "Sberbank", "[archive]", "renko up"} {
		assert.Contains(t, out, want)
	}
}

func TestViewOffline(t *testing.T) {
	st := liveState()
	st.Conn = conn.Error
	st.Recommendation = protocol.RecOffline
	st.Instruments = nil
	m, _, _ := newTestModel(st)

	out := m.View()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "no instruments")
}

func TestTrend(t *testing.T) {
	assert.Equal(t, client.Placeholder, trend(nil))
	assert.Contains(t, trend([]float64{-1, 1}), "▁█")
}
