// Package lookup finds the real executable a shim stands in for.
package lookup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/sshfsexec/internal/bridge"
	"github.com/brandonbloom/sshfsexec/internal/environ"
)

var (
	// ErrNotFound indicates no executable with the requested name exists.
	ErrNotFound = errors.New("command not found")
	// ErrSelfLoop indicates resolution landed on the shim's own executable.
	ErrSelfLoop = errors.New("resolved to the shim itself; put the real binary ahead of the shim or remove the shim from PATH")
)

// Executable is the vector that launches the real binary. Bridged vectors
// hop through an external launcher and carry the command name as their last
// element.
type Executable struct {
	Argv    []string
	Bridged bool
}

// Path is the program that will actually be started.
func (e Executable) Path() string {
	if len(e.Argv) == 0 {
		return ""
	}
	return e.Argv[0]
}

// Resolve locates name the way a shell would, starting in dir and scanning
// the PATH of env, while never returning self. An empty self disables the
// loop checks.
func Resolve(name, dir string, env environ.Env, self string) (Executable, error) {
	if name == "" {
		return Executable{}, fmt.Errorf("empty command: %w", ErrNotFound)
	}

	if strings.ContainsAny(name, "/"+string(filepath.Separator)) {
		if !isExecutable(name, env) {
			return Executable{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return accept(Executable{Argv: []string{name}}, self)
	}

	if distro, ok := bridge.Distro(dir); ok {
		return Executable{Argv: bridge.Argv(dir, distro, name), Bridged: true}, nil
	}

	for _, folder := range filepath.SplitList(env.Get("PATH")) {
		if folder == "" {
			continue
		}
		if !filepath.IsAbs(folder) {
			folder = filepath.Join(dir, folder)
		}
		for _, candidate := range candidates(name, env) {
			path := filepath.Join(folder, candidate)
			if !isExecutable(path, env) {
				continue
			}
			if sameFile(path, self) {
				continue
			}
			return accept(Executable{Argv: []string{filepath.Clean(path)}}, self)
		}
	}

	return Executable{}, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// CommandName derives the wrapped command from argv[0].
func CommandName(argv0 string) string {
	return trimExecutableSuffix(filepath.Base(argv0))
}

// Self reports the shim's own executable with symlinks resolved.
func Self() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

func accept(exe Executable, self string) (Executable, error) {
	if !exe.Bridged && sameFile(exe.Path(), self) {
		return Executable{}, fmt.Errorf("%s: %w", exe.Path(), ErrSelfLoop)
	}
	return exe, nil
}

func sameFile(path, self string) bool {
	if self == "" {
		return false
	}
	a, err := os.Stat(path)
	if err != nil {
		return false
	}
	b, err := os.Stat(self)
	if err != nil {
		return false
	}
	return os.SameFile(a, b)
}
