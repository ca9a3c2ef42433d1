//go:build !windows

package lookup

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/brandonbloom/sshfsexec/internal/environ"
)

func candidates(name string, _ environ.Env) []string {
	return []string{name}
}

func isExecutable(path string, _ environ.Env) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

func trimExecutableSuffix(name string) string {
	return name
}
