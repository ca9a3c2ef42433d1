// Package tty decides how an ssh session should allocate a pseudo-terminal
// so that the remote command sees the same per-stream terminal state as the
// local caller.
package tty

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Allocation is the pseudo-terminal request passed to ssh.
type Allocation int

const (
	// Auto leaves the choice to ssh.
	Auto Allocation = iota
	// Suppress disables allocation (-T).
	Suppress
	// Force requests a pseudo-terminal (-t).
	Force
	// ForceAll requests one even when local stdin is not a terminal (-tt).
	ForceAll
)

func (a Allocation) String() string {
	switch a {
	case Suppress:
		return "suppress"
	case Force:
		return "force"
	case ForceAll:
		return "force-all"
	default:
		return "auto"
	}
}

const stdinShim = "stty -echo; /bin/cat | "

// State records which of the standard streams are attached to a terminal.
type State struct {
	Stdin  bool
	Stdout bool
	Stderr bool
}

func (s State) Any() bool {
	return s.Stdin || s.Stdout || s.Stderr
}

func (s State) All() bool {
	return s.Stdin && s.Stdout && s.Stderr
}

// Detect inspects file descriptors 0, 1, and 2 of the current process.
func Detect() State {
	return State{
		Stdin:  isTerminal(os.Stdin),
		Stdout: isTerminal(os.Stdout),
		Stderr: isTerminal(os.Stderr),
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return term.IsTerminal(int(fd)) || isatty.IsCygwinTerminal(fd)
}

// Directive is the outcome of Decide: how to allocate a pseudo-terminal and
// which pass-through filters hide it from streams that were not terminals
// locally.
type Directive struct {
	Allocate   Allocation
	Pre        string
	WrapStdout bool
	WrapStderr bool
}

// Decide maps the local stream state to a Directive. With preserveIsatty,
// the remote command must observe exactly the local per-stream state, so a
// terminal is always allocated and non-terminal streams are piped through
// cat. Without it, a terminal is only requested for interactive use.
func Decide(s State, preserveIsatty bool) Directive {
	if !s.Any() {
		return Directive{Allocate: Suppress}
	}
	if !preserveIsatty {
		if s.Stdin && s.Stdout {
			return Directive{Allocate: Force}
		}
		return Directive{Allocate: Suppress}
	}

	d := Directive{Allocate: Force}
	if !s.Stdin {
		d.Pre = stdinShim
		d.Allocate = ForceAll
	}
	if !s.Stdout {
		d.WrapStdout = true
	}
	if !s.Stderr {
		d.WrapStderr = true
	}
	return d
}

// Wrap applies the stream filters to a composed remote command. Filtered
// output goes through /bin/cat so it leaves the pseudo-terminal untouched;
// the command's own exit status is carried out of the pipeline on fd 3 and
// becomes the status of the remote shell.
func (d Directive) Wrap(command string) string {
	body := d.Pre + command
	if !d.WrapStdout && !d.WrapStderr {
		return body
	}

	status := "{ { " + body + "; } 3>&- 4>&- 5>&-; echo $? >&3; }"
	var pipeline string
	switch {
	case d.WrapStdout && d.WrapStderr:
		pipeline = "{ " + status + " 2>&1 >&5 | /bin/cat >&2; } 5>&1 | /bin/cat >&4"
	case d.WrapStdout:
		pipeline = status + " | /bin/cat >&4"
	default:
		// Swap the streams so only stderr goes through cat.
		pipeline = status + " 2>&1 >&4 | /bin/cat >&2"
	}
	return "exec 4>&1; s=$({ " + pipeline + "; } 3>&1); exit ${s:-1}"
}

// Flags returns the ssh options implementing the allocation. A session
// without a terminal also disables the escape character so piped input is
// never interpreted.
func (d Directive) Flags() []string {
	switch d.Allocate {
	case Suppress:
		return []string{"-e", "none", "-T"}
	case Force:
		return []string{"-t"}
	case ForceAll:
		return []string{"-tt"}
	default:
		return nil
	}
}
