package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rileyhilliard/sigmon/internal/dashboard"
	"github.com/rileyhilliard/sigmon/internal/logger"
)

// debugLogFile receives logs while the dashboard owns the terminal.
const debugLogFile = "sigmon-debug.log"

// watchCommand runs the dashboard, or tails when stdout is not a terminal.
func watchCommand() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return tailCommand(os.Stdout, false, 0)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns stdout/stderr, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if debugFlag {
		f, err := tea.LogToFile(debugLogFile, "")
		if err == nil {
			defer f.Close()
			logOut = f
		}
	}
	log := logger.NewZapLogger("sigmon", logOut, debugFlag)

	sess, err := startSession(context.Background(), clientOptions(cfg, log))
	if err != nil {
		return err
	}
	defer sess.stop()

	updates, unsubscribe := sess.client.Subscribe()
	defer unsubscribe()

	model := dashboard.NewModel(sess.client, updates, sess.client.Current())
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
