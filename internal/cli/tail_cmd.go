package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/sigmon/internal/tail"
)

// tailCommand streams published states as JSON lines until interrupted.
func tailCommand(out io.Writer, changesOnly bool, count int) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := startSession(ctx, clientOptions(cfg, newLogger(os.Stderr)))
	if err != nil {
		return err
	}
	defer sess.stop()

	updates, unsubscribe := sess.client.Subscribe()
	defer unsubscribe()

	return tail.NewWriter(out, changesOnly).Run(ctx, updates, count)
}
