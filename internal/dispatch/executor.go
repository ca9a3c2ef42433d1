package dispatch

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
)

// OSExecutor starts real processes attached to the shim's own stdio.
type OSExecutor struct {
	logger *slog.Logger
}

func NewOSExecutor(logger *slog.Logger) *OSExecutor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OSExecutor{logger: logger}
}

func (e *OSExecutor) Replace(argv, env []string) error {
	return replaceProcess(argv, env)
}

func (e *OSExecutor) Run(argv, env []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	relay := relaySignals(e.logger)
	defer relay.stop()

	if err := cmd.Start(); err != nil {
		return exitStatus(err), err
	}
	relay.attach(cmd.Process)
	return exitStatus(cmd.Wait()), nil
}

// exitStatus maps a wait error to a shell-style exit code; a child killed by
// a signal reports 128 plus the signal number.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return ee.ExitCode()
	}
	return 127
}
