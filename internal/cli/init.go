package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/sshfsexec/internal/config"
)

func newInitCommand() *cobra.Command {
	var m config.Mapping
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a " + config.MarkerName + " marker for a mounted directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := workingDir(dir)
			if err != nil {
				return err
			}
			path, err := writeMarker(dir, m, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.RemoteHost, "host", "", "ssh login that serves the mount, as host or user@host")
	cmd.Flags().StringVar(&m.RemoteRoot, "root", "", "remote directory matching this one")
	cmd.Flags().StringVar(&m.GitDir, "git-dir", "", "GIT_DIR for local runs")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing marker")
	return cmd
}

func writeMarker(dir string, m config.Mapping, force bool) (string, error) {
	if m.RemoteHost == "" && m.GitDir == "" {
		return "", errors.New("nothing to record; pass --host or --git-dir")
	}
	path := filepath.Join(dir, config.MarkerName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := config.SaveMapping(dir, m); err != nil {
		return "", err
	}
	return path, nil
}
