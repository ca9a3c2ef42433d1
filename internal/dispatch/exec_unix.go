//go:build !windows

package dispatch

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

func replaceProcess(argv, env []string) error {
	return syscall.Exec(argv[0], argv, env)
}

// signalRelay keeps the shim alive while a child runs. Interrupts from the
// terminal already reach the whole foreground process group, so they are
// swallowed here; termination and hangup are passed on to the child.
type signalRelay struct {
	ch     chan os.Signal
	child  chan *os.Process
	done   chan struct{}
	logger *slog.Logger
}

func relaySignals(logger *slog.Logger) *signalRelay {
	r := &signalRelay{
		ch:     make(chan os.Signal, 4),
		child:  make(chan *os.Process, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	signal.Notify(r.ch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP)
	go r.loop()
	return r
}

func (r *signalRelay) attach(p *os.Process) {
	r.child <- p
}

func (r *signalRelay) stop() {
	signal.Stop(r.ch)
	close(r.done)
}

func (r *signalRelay) loop() {
	var proc *os.Process
	var pending []os.Signal
	for {
		select {
		case <-r.done:
			return
		case proc = <-r.child:
			for _, sig := range pending {
				r.forward(proc, sig)
			}
			pending = nil
		case sig := <-r.ch:
			switch sig {
			case syscall.SIGINT, syscall.SIGQUIT:
				r.logger.Debug("ignoring signal while child runs", "signal", describeSignal(sig.(syscall.Signal)))
			default:
				if proc == nil {
					pending = append(pending, sig)
					continue
				}
				r.forward(proc, sig)
			}
		}
	}
}

func (r *signalRelay) forward(proc *os.Process, sig os.Signal) {
	r.logger.Debug("forwarding signal", "signal", describeSignal(sig.(syscall.Signal)), "pid", proc.Pid)
	_ = proc.Signal(sig)
}

func describeSignal(sig syscall.Signal) string {
	name := unix.SignalName(sig)
	if name == "" {
		return fmt.Sprintf("signal %d", sig)
	}
	return fmt.Sprintf("%s (%d)", name, sig)
}
