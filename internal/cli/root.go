package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/sshfsexec/internal/dispatch"
	"github.com/brandonbloom/sshfsexec/internal/engine"
	"github.com/brandonbloom/sshfsexec/internal/environ"
	"github.com/brandonbloom/sshfsexec/internal/lookup"
	"github.com/brandonbloom/sshfsexec/internal/tty"
	"github.com/brandonbloom/sshfsexec/internal/version"
)

// SelfName is the name under which the binary exposes its own commands
// instead of standing in for another program.
const SelfName = "sshfsexec"

const (
	exitFatal    = 1
	exitNotFound = 127
)

// Main runs the process and returns its exit status. Invoked as SelfName it
// is a regular command line tool; under any other name it is a shim for
// the program of that name.
func Main(argv []string) int {
	name := SelfName
	if len(argv) > 0 {
		name = lookup.CommandName(argv[0])
	}
	if name == SelfName {
		return execute(argv[min(1, len(argv)):], os.Stdout, os.Stderr)
	}
	return runShim(context.Background(), name, argv[1:], os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", SelfName, err)
		return exitFatal
	}
	return 0
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           SelfName,
		Short:         "Run commands on the host that serves an sshfs mount",
		Long:          "Link sshfsexec under a program's name ahead of the real program on PATH. Inside a directory carrying a " + markerHint + " marker the program runs on the remote host; elsewhere the real local program runs unchanged.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newVersionCommand(),
		newDoctorCommand(),
		newExplainCommand(),
		newLinkCommand(),
		newInitCommand(),
	)

	return cmd
}

func runShim(ctx context.Context, name string, args []string, stderr io.Writer) int {
	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", SelfName, err)
		return exitFatal
	}
	logger := newLogger(stderr, settings.Level())

	inv, err := currentInvocation(name, args, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", SelfName, err)
		return exitFatal
	}

	outcome, err := engine.New(settings, logger).Run(ctx, inv)
	return exitCode(name, outcome, err, stderr)
}

func currentInvocation(name string, args []string, logger *slog.Logger) (engine.Invocation, error) {
	dir, err := os.Getwd()
	if err != nil {
		return engine.Invocation{}, err
	}
	self, err := locateSelf()
	if err != nil {
		logger.Warn("could not locate own executable; shims on PATH may resolve to themselves", "err", err)
	}
	return engine.Invocation{
		Command: name,
		Args:    args,
		Dir:     dir,
		Env:     environ.FromList(os.Environ()),
		TTY:     tty.Detect(),
		Self:    self,
	}, nil
}

// exitCode reports err on stderr and picks the status the shim exits with.
func exitCode(name string, outcome dispatch.Outcome, err error, stderr io.Writer) int {
	if err == nil {
		return outcome.Code
	}
	if errors.Is(err, lookup.ErrNotFound) {
		fmt.Fprintf(stderr, "%s: %s: command not found\n", SelfName, name)
		return exitNotFound
	}
	fmt.Fprintf(stderr, "%s: %v\n", SelfName, err)
	if outcome.Code != 0 {
		return outcome.Code
	}
	return exitFatal
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
