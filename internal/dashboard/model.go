package dashboard

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/sigmon/internal/client"
	"github.com/rileyhilliard/sigmon/internal/conn"
)

// Controller is the part of the client the dashboard drives.
type Controller interface {
	Connect()
	SwitchTicker(ticker string) error
	LoadArchive(ticker string) error
	ApplyParams()
	ResetStaged()
}

// stateMsg carries a freshly published client state.
type stateMsg client.State

// closedMsg signals that the subscription ended.
type closedMsg struct{}

// Model is the Bubble Tea model for the live signal dashboard.
type Model struct {
	ctrl    Controller
	updates <-chan client.State
	state   client.State

	selected int
	flash    string

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	showHelp bool

	width    int
	height   int
	quitting bool
}

// NewModel creates a dashboard fed by updates and driving ctrl.
func NewModel(ctrl Controller, updates <-chan client.State, initial client.State) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = connStyle(conn.Connecting)

	return Model{
		ctrl:    ctrl,
		updates: updates,
		state:   initial,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Init starts waiting for state and spinning.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), m.spinner.Tick)
}

// waitForState blocks on the subscription until the next state arrives.
func waitForState(ch <-chan client.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(st)
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.state = client.State(msg)
		m.clampSelection()
		return m, waitForState(m.updates)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.state.Instruments)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Switch):
		if t, ok := m.selectedTicker(); ok {
			m.setFlash(m.ctrl.SwitchTicker(t), "switching to "+t)
		}

	case key.Matches(msg, m.keys.Archive):
		if t, ok := m.selectedTicker(); ok {
			m.setFlash(m.ctrl.LoadArchive(t), "loading archive for "+t)
		}

	case key.Matches(msg, m.keys.Reconnect):
		m.ctrl.Connect()
		m.flash = "reconnecting"

	case key.Matches(msg, m.keys.Apply):
		m.ctrl.ApplyParams()
		m.flash = "params sent"

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.ResetStaged()
		m.flash = "staged params discarded"
	}

	return m, nil
}

func (m *Model) setFlash(err error, ok string) {
	if err != nil {
		m.flash = err.Error()
		return
	}
	m.flash = ok
}

func (m Model) selectedTicker() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Instruments) {
		return "", false
	}
	return m.state.Instruments[m.selected].Ticker, true
}

func (m *Model) clampSelection() {
	if n := len(m.state.Instruments); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// State returns the last state the dashboard rendered.
func (m Model) State() client.State {
	return m.state
}
