package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/sshfsexec/internal/config"
	"github.com/brandonbloom/sshfsexec/internal/environ"
	"github.com/brandonbloom/sshfsexec/internal/gitutil"
	"github.com/brandonbloom/sshfsexec/internal/lookup"
	"github.com/brandonbloom/sshfsexec/internal/rewrite"
)

func newDoctorCommand() *cobra.Command {
	var verbose bool
	var dir string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose sshfsexec prerequisites for a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, dir, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show passing checks too")
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "directory to check (default: current directory)")
	return cmd
}

type doctorContext struct {
	Dir      string
	Settings config.Settings
	Mapping  *config.Mapping
}

type doctorCheck struct {
	Name string
	Fn   func(*doctorContext) (string, error)
}

func runDoctor(cmd *cobra.Command, dir string, verbose bool) error {
	wd, err := workingDir(dir)
	if err != nil {
		return err
	}
	ctx := &doctorContext{Dir: wd, Settings: config.DefaultSettings()}
	checks := []doctorCheck{
		{Name: "settings", Fn: checkSettings},
		{Name: "ssh client", Fn: func(c *doctorContext) (string, error) { return requireOnPath(c.Settings.SSH) }},
		{Name: "scp client", Fn: func(c *doctorContext) (string, error) { return requireOnPath(c.Settings.SCP) }},
		{Name: "directory mapping", Fn: checkMapping},
		{Name: "real " + rewrite.WrappedTool, Fn: checkWrappedTool},
	}

	var failures []string
	for _, check := range checks {
		detail, err := check.Fn(ctx)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s %s: %v", mark(false), check.Name, err))
			continue
		}
		if verbose {
			if detail != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", mark(true), check.Name, detail)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark(true), check.Name)
			}
		}
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			fmt.Fprintln(cmd.ErrOrStderr(), failure)
		}
		return fmt.Errorf("%d doctor checks failed", len(failures))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "healthy!")
	return nil
}

func checkSettings(c *doctorContext) (string, error) {
	path := config.SettingsPath()
	settings, err := config.LoadSettings(path)
	if err != nil {
		return "", err
	}
	c.Settings = settings
	if _, err := os.Stat(path); err != nil {
		return "defaults (no " + path + ")", nil
	}
	return path, nil
}

func requireOnPath(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH", binary)
	}
	return path, nil
}

func checkMapping(c *doctorContext) (string, error) {
	m, err := config.LoadMapping(c.Dir)
	if err != nil {
		return "", err
	}
	c.Mapping = m
	switch {
	case m.Remote():
		return fmt.Sprintf("remote %s:%s", m.RemoteHost, m.RemoteRoot), nil
	case m != nil && m.GitDir != "":
		return "local, git-dir " + m.GitDir, nil
	default:
		return "local (no " + config.MarkerName + ")", nil
	}
}

// checkWrappedTool makes sure a shim named after the wrapped tool would find
// a real binary to hand off to.
func checkWrappedTool(c *doctorContext) (string, error) {
	if c.Mapping.Remote() {
		return "runs on " + c.Mapping.RemoteHost, nil
	}
	self, err := locateSelf()
	if err != nil {
		return "", fmt.Errorf("cannot locate sshfsexec itself, so shims could loop: %w", err)
	}
	exe, err := lookup.Resolve(rewrite.WrappedTool, c.Dir, environ.FromList(os.Environ()), self)
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return "", fmt.Errorf("no %s on PATH besides the shim", rewrite.WrappedTool)
		}
		return "", err
	}
	if exe.Bridged {
		return "bridged via " + exe.Path(), nil
	}
	v, err := gitutil.Version(exe.Path())
	if err != nil {
		return "", err
	}
	return exe.Path() + " (" + v + ")", nil
}
