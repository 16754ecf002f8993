// Package shutdown binds a context to process termination signals.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context cancelled on SIGINT or SIGTERM and the cancel
// function releasing the signal watcher.
func New() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
