//go:build windows

package dispatch

import (
	"log/slog"
	"os"
	"os/signal"
)

func replaceProcess(argv, env []string) error {
	return ErrReplaceUnsupported
}

// signalRelay swallows console interrupts; the console delivers them to the
// child directly.
type signalRelay struct {
	ch   chan os.Signal
	done chan struct{}
}

func relaySignals(logger *slog.Logger) *signalRelay {
	r := &signalRelay{ch: make(chan os.Signal, 1), done: make(chan struct{})}
	signal.Notify(r.ch, os.Interrupt)
	go func() {
		for {
			select {
			case <-r.done:
				return
			case <-r.ch:
				logger.Debug("ignoring interrupt while child runs")
			}
		}
	}()
	return r
}

func (r *signalRelay) attach(*os.Process) {}

func (r *signalRelay) stop() {
	signal.Stop(r.ch)
	close(r.done)
}
