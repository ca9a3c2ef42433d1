package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brandonbloom/sshfsexec/internal/rewrite"
)

func newLinkCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "link <dir> [command...]",
		Short: "Install shims by symlinking command names to sshfsexec",
		Long:  "Creates <dir>/<command> symlinks pointing at this executable. Put <dir> ahead of the real programs on PATH. Defaults to " + rewrite.WrappedTool + ".",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := locateSelf()
			if err != nil {
				return fmt.Errorf("locate sshfsexec: %w", err)
			}
			names := args[1:]
			if len(names) == 0 {
				names = []string{rewrite.WrappedTool}
			}
			for _, name := range names {
				path, err := linkShim(args[0], name, self, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, self)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace existing files")
	return cmd
}

// linkShim points dir/name at self. An existing link to self is left alone.
func linkShim(dir, name, self string, force bool) (string, error) {
	if name == "" || name == SelfName || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid shim name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	if dest, err := os.Readlink(path); err == nil && dest == self {
		return path, nil
	}
	if _, err := os.Lstat(path); err == nil {
		if !force {
			return "", fmt.Errorf("%s already exists (use --force to replace)", path)
		}
		if err := os.Remove(path); err != nil {
			return "", err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if err := os.Symlink(self, path); err != nil {
		return "", err
	}
	return path, nil
}
