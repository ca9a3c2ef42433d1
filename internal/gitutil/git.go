package gitutil

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// headMovers are the subcommands that can move HEAD or its remote refs.
var headMovers = map[string]bool{
	"commit": true,
	"fetch":  true,
	"pull":   true,
}

// run executes binary within dir and returns trimmed stdout.
func run(binary, dir string, args ...string) (string, error) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %v\n%s", filepath.Base(binary), strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Version reports the output of `git --version` for the given binary.
func Version(binary string) (string, error) {
	return run(binary, "", "--version")
}

// MovesHead reports whether args is a git invocation that can change what
// a GUI client highlights as HEAD.
func MovesHead(args []string) bool {
	return len(args) > 0 && headMovers[args[0]]
}

// HeadLogPath is the reflog of HEAD for a checkout rooted at root. gitDir is
// the git directory relative to root; empty means ".git".
func HeadLogPath(root, gitDir string) string {
	if gitDir == "" {
		gitDir = ".git"
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(root, gitDir)
	}
	return filepath.Join(gitDir, "logs", "HEAD")
}

// TouchHeadLog sets the modification time of the HEAD reflog to now,
// creating the file and its parents if needed. Clients that watch that
// timestamp then notice commits made on another machine.
func TouchHeadLog(root, gitDir string, now time.Time) (string, error) {
	path := HeadLogPath(root, gitDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, err
	}
	err := os.Chtimes(path, now, now)
	if errors.Is(err, os.ErrNotExist) {
		var f *os.File
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			err = f.Close()
		}
		if err == nil {
			err = os.Chtimes(path, now, now)
		}
	}
	return path, err
}
