// Package shellcmd builds the single command line a remote POSIX shell runs
// on the shim's behalf, along with the ssh vector that carries it.
package shellcmd

import (
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/brandonbloom/sshfsexec/internal/tty"
)

// Quote renders s as a single POSIX shell word that expands back to s.
func Quote(s string) string {
	if q, err := syntax.Quote(s, syntax.LangPOSIX); err == nil {
		return q
	}
	// POSIX has no escapes for control bytes, but single quotes keep them
	// literal.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes each argument and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}

// Compose returns the remote command for name and args, prefixed with env
// assignments and run from root when root is set. The cd sits inside a
// brace group because a bare cd on the receiving end of a pipe runs in a
// subshell and would not affect the command.
func Compose(name string, args []string, env map[string]string, root string) string {
	var b strings.Builder
	for _, key := range sortedKeys(env) {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(Quote(env[key]))
		b.WriteByte(' ')
	}
	b.WriteString(Join(append([]string{name}, args...)))

	if root == "" {
		return b.String()
	}
	return "{ cd " + Quote(root) + " && " + b.String() + "; }"
}

// SSHArgv assembles the ssh invocation running command on login.
func SSHArgv(ssh string, options []string, login string, d tty.Directive, command string) []string {
	argv := []string{ssh, "-o", "LogLevel=QUIET"}
	argv = append(argv, d.Flags()...)
	argv = append(argv, options...)
	argv = append(argv, login, d.Wrap(command))
	return argv
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
