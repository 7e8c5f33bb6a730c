package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler returns a context cancelled by the first SIGINT or SIGTERM.
// Cancellation aborts a running comparison and leaves the interactive menu;
// hashing cannot be cancelled, so a second signal gets the default behaviour
// and terminates the process.
func setupSignalHandler(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			// Restore default handling before cancelling so a second signal always terminates
			signal.Stop(sigChan)
			fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)
			fmt.Fprintf(os.Stderr, "Stopping after the current step, send it again to exit immediately...\n")
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()

	return ctx, cancel
}
