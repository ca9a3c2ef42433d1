package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// SCP stages files with the scp client, reusing the ssh options of the
// session so the same identity and multiplexing apply.
type SCP struct {
	Binary  string
	Options []string
	Dir     string
}

func (s SCP) Stage(ctx context.Context, localPath, login, remotePath string) error {
	binary := s.Binary
	if binary == "" {
		binary = "scp"
	}
	args := append(append([]string{"-q"}, s.Options...), "--", localPath, login+":"+remotePath)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = s.Dir
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %w\n%s", binary, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return nil
}
