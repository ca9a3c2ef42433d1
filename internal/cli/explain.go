package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/brandonbloom/sshfsexec/internal/config"
	"github.com/brandonbloom/sshfsexec/internal/dispatch"
	"github.com/brandonbloom/sshfsexec/internal/engine"
	"github.com/brandonbloom/sshfsexec/internal/shellcmd"
	"github.com/brandonbloom/sshfsexec/internal/tty"
)

func newExplainCommand() *cobra.Command {
	var dir, terminal string
	cmd := &cobra.Command{
		Use:   "explain [flags] -- <command> [args...]",
		Short: "Show what a shim would run without running it",
		Long:  "Plans the command exactly as a shim would, but stages no files, leaves the checkout untouched, and prints the result instead of running it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := parseTerminal(terminal)
			if err != nil {
				return err
			}
			return runExplain(cmd.Context(), cmd.OutOrStdout(), dir, state, args)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "directory to plan in (default: current directory)")
	cmd.Flags().StringVar(&terminal, "tty", "auto", "terminal state to assume: auto, none, or all")
	return cmd
}

func parseTerminal(raw string) (tty.State, error) {
	switch raw {
	case "auto":
		return tty.Detect(), nil
	case "none":
		return tty.State{}, nil
	case "all":
		return tty.State{Stdin: true, Stdout: true, Stderr: true}, nil
	default:
		return tty.State{}, fmt.Errorf("--tty must be auto, none, or all (got %q)", raw)
	}
}

func runExplain(ctx context.Context, w io.Writer, dir string, state tty.State, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(io.Discard, settings.Level())
	inv, err := currentInvocation(args[0], args[1:], logger)
	if err != nil {
		return err
	}
	if inv.Dir, err = workingDir(dir); err != nil {
		return err
	}
	inv.TTY = state

	e := engine.New(settings, logger)
	e.DryRun = true
	prepared, err := e.Prepare(ctx, inv)
	if err != nil {
		return err
	}

	rows := [][2]string{
		{"command", shellcmd.Join(args)},
		{"directory", inv.Dir},
		{"mapping", describeMapping(prepared.Mapping)},
		{"terminal", describeTerminal(state)},
	}
	switch c := prepared.Command.(type) {
	case dispatch.Local:
		how := "replace process"
		if c.Bridged {
			how = "child process (bridged)"
		}
		rows = append(rows, [2]string{"dispatch", how}, [2]string{"argv", shellcmd.Join(c.Argv)})
		if v, ok := dispatch.LocalEnv(c.Env, c.Bridged).Lookup("GIT_DIR"); ok {
			rows = append(rows, [2]string{"GIT_DIR", v})
		}
	case dispatch.Remote:
		rows = append(rows, [2]string{"dispatch", "ssh"}, [2]string{"argv", shellcmd.Join(c.Argv)})
	case dispatch.Reply:
		rows = append(rows, [2]string{"dispatch", "reply"}, [2]string{"output", strings.TrimSuffix(c.Text, "\n")})
	}
	return writeRows(w, rows)
}

func describeMapping(m *config.Mapping) string {
	switch {
	case m.Remote() && m.RemoteRoot != "":
		return colorValue(m.RemoteHost + ":" + m.RemoteRoot)
	case m.Remote():
		return colorValue(m.RemoteHost)
	case m != nil && m.GitDir != "":
		return "local (git-dir " + m.GitDir + ")"
	default:
		return "local"
	}
}

func describeTerminal(s tty.State) string {
	return fmt.Sprintf("stdin %s  stdout %s  stderr %s", mark(s.Stdin), mark(s.Stdout), mark(s.Stderr))
}

func writeRows(w io.Writer, rows [][2]string) error {
	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row[0]))
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s  %s\n", colorLabel(runewidth.FillRight(row[0], width)), row[1]); err != nil {
			return err
		}
	}
	return nil
}
