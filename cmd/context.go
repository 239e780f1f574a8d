package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// TerminationContext returns a context that is cancelled when one of the
// TerminationSignals is received. Every received signal is also reported
// through the signal channel until the returned function is called. That
// function stops signal delivery and cancels the context.
func TerminationContext(parent context.Context) (context.Context, <-chan os.Signal, func()) {
	// Set up signal handling.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, TerminationSignals...)

	// Create the cancellable context and forward signals into it.
	ctx, cancel := context.WithCancel(parent)
	received := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-signals:
				cancel()
				select {
				case received <- s:
				case <-stopped:
					return
				}
			case <-stopped:
				return
			}
		}
	}()

	// Done.
	var once sync.Once
	return ctx, received, func() {
		once.Do(func() {
			signal.Stop(signals)
			close(stopped)
			cancel()
		})
	}
}
