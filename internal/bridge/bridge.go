// Package bridge hops from a Windows host into a WSL distribution when the
// working directory lives inside that distribution's filesystem.
package bridge

import (
	"strings"

	"github.com/brandonbloom/sshfsexec/internal/environ"
)

const (
	// Launcher is the Windows executable that starts a command inside WSL.
	Launcher = "wsl.exe"

	envShare = "WSLENV"
)

var uncRoots = []string{`\\wsl$\`, `\\wsl.localhost\`}

// Distro reports the WSL distribution that owns dir, if dir is a WSL UNC
// path such as \\wsl$\Ubuntu\home\u\repo.
func Distro(dir string) (string, bool) {
	norm := strings.ReplaceAll(dir, "/", `\`)
	lower := strings.ToLower(norm)
	for _, root := range uncRoots {
		if !strings.HasPrefix(lower, root) {
			continue
		}
		distro, _, _ := strings.Cut(norm[len(root):], `\`)
		if distro == "" {
			return "", false
		}
		return distro, true
	}
	return "", false
}

// Argv builds the launcher vector that runs command inside distro with dir
// as its working directory. Arguments for command are appended by callers.
func Argv(dir, distro, command string) []string {
	return []string{Launcher, "--cd", dir, "-d", distro, command}
}

// Share returns env extended so that name crosses the WSL boundary with
// path translation.
func Share(env environ.Env, name string) environ.Env {
	entry := name + "/u"
	cur := env.Get(envShare)
	for _, existing := range strings.Split(cur, ":") {
		if existing == entry {
			return env
		}
	}
	if cur == "" {
		return env.With(envShare, entry)
	}
	return env.With(envShare, cur+":"+entry)
}
