package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/sigmon/internal/conn"
)

// EndpointAttempt is one finished dial of an endpoint.
type EndpointAttempt struct {
	Endpoint string
	OK       bool
	Detail   string
	Took     time.Duration
}

// ConnectionDisplay renders endpoint failover as it happens.
//
// Example output:
//
//	○ ws://primary:8765/ws                              primary failed, trying backup
//	● Connected to ws://backup:8765/ws                  0.4s
type ConnectionDisplay struct {
	mu        sync.Mutex
	w         io.Writer
	spinner   *Spinner
	attempts  []EndpointAttempt
	current   string
	open      bool
	dialStart time.Time
	started   time.Time
	done      bool
}

// NewConnectionDisplay creates a display writing to w. With animate unset
// no spinner is drawn, only the attempt lines.
func NewConnectionDisplay(w io.Writer, animate bool) *ConnectionDisplay {
	cd := &ConnectionDisplay{w: w, started: time.Now()}
	if animate {
		cd.spinner = NewSpinner(w, "Connecting")
	}
	return cd
}

// Observe feeds one connection status into the display.
func (cd *ConnectionDisplay) Observe(state conn.State, endpoint, text string) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if cd.done {
		return
	}

	if state != conn.Open {
		cd.open = false
	}

	switch state {
	case conn.Connecting:
		if endpoint != cd.current {
			cd.current = endpoint
			cd.dialStart = time.Now()
		}
		if cd.spinner != nil {
			cd.spinner.SetLabel("Connecting to " + endpoint)
			cd.spinner.Start()
		}

	case conn.Error, conn.Closed:
		if cd.current == "" {
			return
		}
		cd.finishAttemptLocked(EndpointAttempt{
			Endpoint: cd.current,
			Detail:   text,
			Took:     sinceOrZero(cd.dialStart),
		})
		cd.current = ""

	case conn.Open:
		if cd.open {
			return
		}
		cd.open = true
		cd.finishAttemptLocked(EndpointAttempt{
			Endpoint: endpoint,
			OK:       true,
			Took:     sinceOrZero(cd.dialStart),
		})
		cd.current = ""
	}
}

func (cd *ConnectionDisplay) finishAttemptLocked(a EndpointAttempt) {
	if cd.spinner != nil {
		cd.spinner.Stop()
	}
	cd.attempts = append(cd.attempts, a)
	if !a.OK {
		fmt.Fprintln(cd.w, RenderAttemptLine(a))
	}
}

// Success prints the final connected line.
func (cd *ConnectionDisplay) Success(endpoint string) {
	cd.finish(SymbolComplete, ColorSuccess, "Connected to "+endpoint)
}

// Fail prints the final failure line.
func (cd *ConnectionDisplay) Fail(reason string) {
	msg := "Connection failed"
	if reason != "" {
		msg += ": " + reason
	}
	cd.finish(SymbolFail, ColorError, msg)
}

func (cd *ConnectionDisplay) finish(symbol string, color lipgloss.Color, msg string) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if cd.done {
		return
	}
	cd.done = true
	if cd.spinner != nil {
		cd.spinner.Stop()
	}

	fmt.Fprintf(cd.w, "%s %s %s\n",
		lipgloss.NewStyle().Foreground(color).Render(symbol),
		msg,
		lipgloss.NewStyle().Foreground(ColorMuted).Render(formatDuration(time.Since(cd.started))),
	)
}

// Attempts returns a copy of all finished attempts.
func (cd *ConnectionDisplay) Attempts() []EndpointAttempt {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return append([]EndpointAttempt(nil), cd.attempts...)
}

// RenderAttemptLine formats one attempt with its detail right of the endpoint.
func RenderAttemptLine(a EndpointAttempt) string {
	symbol, color := SymbolPending, ColorMuted
	detail := a.Detail
	if a.OK {
		symbol, color = SymbolComplete, ColorSuccess
		detail = formatDuration(a.Took)
	}
	if detail == "" {
		detail = "failed"
	}

	padding := 50 - len(a.Endpoint)
	if padding < 2 {
		padding = 2
	}

	return fmt.Sprintf("  %s %s%s%s",
		lipgloss.NewStyle().Foreground(color).Render(symbol),
		a.Endpoint,
		strings.Repeat(" ", padding),
		lipgloss.NewStyle().Foreground(ColorMuted).Render(detail),
	)
}

func sinceOrZero(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return time.Since(t)
}
