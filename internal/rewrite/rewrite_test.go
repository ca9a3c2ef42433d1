package rewrite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

type stageCall struct {
	local, login, remote string
}

type fakeStager struct {
	calls []stageCall
	err   error
}

func (f *fakeStager) Stage(_ context.Context, local, login, remote string) error {
	f.calls = append(f.calls, stageCall{local, login, remote})
	return f.err
}

var target = &Target{Login: "u@host", Root: "/srv/repo"}

func TestRewriteWithoutTargetPassesThrough(t *testing.T) {
	stager := &fakeStager{}
	args := []string{"commit", "--file=/home/u/msg.txt"}
	res, err := Rewrite(context.Background(), "git", args, nil, Options{Stager: stager})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !reflect.DeepEqual(res.Args, args) || res.PrintWorkdir || len(stager.calls) != 0 {
		t.Fatalf("unexpected result %+v, calls %v", res, stager.calls)
	}
}

func TestRewriteToplevelQueries(t *testing.T) {
	cases := []struct {
		args []string
		want bool
	}{
		{[]string{"rev-parse", "--absolute-git-dir"}, true},
		{[]string{"rev-parse", "--show-toplevel"}, true},
		{[]string{"rev-parse", "--show-toplevel", "--quiet"}, false},
		{[]string{"rev-parse", "HEAD"}, false},
		{[]string{"rev-parse"}, false},
		{nil, false},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			res, err := Rewrite(context.Background(), "git", tc.args, target, Options{})
			if err != nil {
				t.Fatalf("Rewrite: %v", err)
			}
			if res.PrintWorkdir != tc.want {
				t.Fatalf("PrintWorkdir = %v, want %v", res.PrintWorkdir, tc.want)
			}
		})
	}
}

func TestRewriteOnlyAppliesToWrappedTool(t *testing.T) {
	res, err := Rewrite(context.Background(), "hg", []string{"rev-parse", "--show-toplevel"}, target, Options{})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if res.PrintWorkdir {
		t.Fatalf("rules leaked to another command")
	}
}

func TestRewriteCommitStagesFiles(t *testing.T) {
	stager := &fakeStager{}
	args := []string{"commit", "--file=/home/u/msg.txt", "--amend", "--file=notes.txt", "-m", "--file=x"}
	orig := append([]string(nil), args...)

	res, err := Rewrite(context.Background(), "git", args, target, Options{Stager: stager, StageDir: "/tmp"})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	want := []string{"commit", "--file=/tmp/msg.txt", "--amend", "--file=/tmp/notes.txt", "-m", "--file=/tmp/x"}
	if !reflect.DeepEqual(res.Args, want) {
		t.Fatalf("Args = %#v, want %#v", res.Args, want)
	}
	if !reflect.DeepEqual(args, orig) {
		t.Fatalf("input args were modified: %#v", args)
	}
	wantCalls := []stageCall{
		{"/home/u/msg.txt", "u@host", "/tmp/msg.txt"},
		{"notes.txt", "u@host", "/tmp/notes.txt"},
		{"x", "u@host", "/tmp/x"},
	}
	if !reflect.DeepEqual(stager.calls, wantCalls) {
		t.Fatalf("stage calls = %#v, want %#v", stager.calls, wantCalls)
	}
	if len(res.Staged) != 3 {
		t.Fatalf("Staged = %#v", res.Staged)
	}
}

func TestRewriteCommitStageFailureIsFatal(t *testing.T) {
	stager := &fakeStager{err: errors.New("connection refused")}
	_, err := Rewrite(context.Background(), "git", []string{"commit", "--file=/home/u/msg.txt"}, target, Options{Stager: stager})
	if !errors.Is(err, ErrStage) {
		t.Fatalf("expected ErrStage, got %v", err)
	}
}

func TestRewriteCommitWithoutFileArgsSkipsStaging(t *testing.T) {
	stager := &fakeStager{}
	res, err := Rewrite(context.Background(), "git", []string{"commit", "-m", "msg"}, target, Options{Stager: stager})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if len(stager.calls) != 0 || !reflect.DeepEqual(res.Args, []string{"commit", "-m", "msg"}) {
		t.Fatalf("unexpected rewrite %+v", res)
	}
}

func TestTargetHost(t *testing.T) {
	if got := (Target{Login: "u@example.com"}).Host(); got != "example.com" {
		t.Fatalf("Host = %q", got)
	}
	if got := (Target{Login: "example.com"}).Host(); got != "example.com" {
		t.Fatalf("Host = %q", got)
	}
}

func TestSCPStageRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script stand-in for scp")
	}
	dir := t.TempDir()
	log := filepath.Join(dir, "args")
	script := filepath.Join(dir, "scp")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nprintf '%s\\n' \"$@\" > "+log+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := SCP{Binary: script, Options: []string{"-o", "BatchMode=yes"}}
	if err := s.Stage(context.Background(), "/home/u/msg.txt", "u@host", "/tmp/msg.txt"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	want := "-q\n-o\nBatchMode=yes\n--\n/home/u/msg.txt\nu@host:/tmp/msg.txt\n"
	if string(data) != want {
		t.Fatalf("scp args = %q, want %q", data, want)
	}
}

func TestSCPStageReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script stand-in for scp")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "scp")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'lost connection' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := SCP{Binary: script}.Stage(context.Background(), "a", "h", "/tmp/a")
	if err == nil || !strings.Contains(err.Error(), "lost connection") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
