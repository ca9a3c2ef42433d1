package tty

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"testing"
)

func allStates() []State {
	var states []State
	for i := 0; i < 8; i++ {
		states = append(states, State{Stdin: i&1 != 0, Stdout: i&2 != 0, Stderr: i&4 != 0})
	}
	return states
}

func TestDecideWithoutPreserve(t *testing.T) {
	for _, s := range allStates() {
		t.Run(fmt.Sprintf("%+v", s), func(t *testing.T) {
			got := Decide(s, false)
			want := Directive{Allocate: Suppress}
			if s.Stdin && s.Stdout {
				want = Directive{Allocate: Force}
			}
			if got != want {
				t.Fatalf("Decide = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecideWithPreserve(t *testing.T) {
	for _, s := range allStates() {
		t.Run(fmt.Sprintf("%+v", s), func(t *testing.T) {
			got := Decide(s, true)
			if !s.Any() {
				if got != (Directive{Allocate: Suppress}) {
					t.Fatalf("Decide = %+v, want plain suppress", got)
				}
				return
			}
			if got.Allocate != Force && got.Allocate != ForceAll {
				t.Fatalf("Allocate = %v, want a forced allocation", got.Allocate)
			}
			if (got.Allocate == ForceAll) != !s.Stdin {
				t.Fatalf("Allocate = %v with stdin tty=%v", got.Allocate, s.Stdin)
			}
			if (got.Pre != "") != !s.Stdin {
				t.Fatalf("Pre = %q with stdin tty=%v", got.Pre, s.Stdin)
			}
			if got.WrapStdout != !s.Stdout {
				t.Fatalf("WrapStdout = %v with stdout tty=%v", got.WrapStdout, s.Stdout)
			}
			if got.WrapStderr != !s.Stderr {
				t.Fatalf("WrapStderr = %v with stderr tty=%v", got.WrapStderr, s.Stderr)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	for _, s := range allStates() {
		for _, preserve := range []bool{false, true} {
			if Decide(s, preserve) != Decide(s, preserve) {
				t.Fatalf("Decide(%+v, %v) not deterministic", s, preserve)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	cases := []struct {
		name  string
		state State
		want  string
	}{
		{"all terminals", State{true, true, true}, "git log"},
		{"stdin piped", State{false, true, true}, "stty -echo; /bin/cat | git log"},
		{"stdout piped", State{true, false, true},
			"exec 4>&1; s=$({ { { git log; } 3>&- 4>&- 5>&-; echo $? >&3; } | /bin/cat >&4; } 3>&1); exit ${s:-1}"},
		{"stderr piped", State{true, true, false},
			"exec 4>&1; s=$({ { { git log; } 3>&- 4>&- 5>&-; echo $? >&3; } 2>&1 >&4 | /bin/cat >&2; } 3>&1); exit ${s:-1}"},
		{"stdin and stderr piped", State{false, true, false},
			"exec 4>&1; s=$({ { { stty -echo; /bin/cat | git log; } 3>&- 4>&- 5>&-; echo $? >&3; } 2>&1 >&4 | /bin/cat >&2; } 3>&1); exit ${s:-1}"},
		{"stdout and stderr piped", State{true, false, false},
			"exec 4>&1; s=$({ { { { git log; } 3>&- 4>&- 5>&-; echo $? >&3; } 2>&1 >&5 | /bin/cat >&2; } 5>&1 | /bin/cat >&4; } 3>&1); exit ${s:-1}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.state, true).Wrap("git log")
			if got != tc.want {
				t.Fatalf("Wrap = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	cases := []struct {
		alloc Allocation
		want  []string
	}{
		{Auto, nil},
		{Suppress, []string{"-e", "none", "-T"}},
		{Force, []string{"-t"}},
		{ForceAll, []string{"-tt"}},
	}
	for _, tc := range cases {
		t.Run(tc.alloc.String(), func(t *testing.T) {
			got := Directive{Allocate: tc.alloc}.Flags()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Flags = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestWrapKeepsExitStatusAndStreams(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("needs a POSIX shell")
	}
	states := []State{
		{Stdin: true, Stdout: false, Stderr: true},
		{Stdin: true, Stdout: true, Stderr: false},
		{Stdin: true, Stdout: false, Stderr: false},
	}
	for _, s := range states {
		t.Run(fmt.Sprintf("%+v", s), func(t *testing.T) {
			script := Decide(s, true).Wrap(`sh -c 'printf out; printf err >&2; exit 7'`)
			cmd := exec.Command("/bin/sh", "-c", script)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			err := cmd.Run()

			var ee *exec.ExitError
			if !errors.As(err, &ee) || ee.ExitCode() != 7 {
				t.Fatalf("exit = %v, want status 7", err)
			}
			if stdout.String() != "out" || stderr.String() != "err" {
				t.Fatalf("stdout=%q stderr=%q", stdout.String(), stderr.String())
			}
		})
	}
}
