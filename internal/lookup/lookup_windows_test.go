//go:build windows

package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brandonbloom/sshfsexec/internal/environ"
)

func TestResolveWindowsEnvironment(t *testing.T) {
	bin := t.TempDir()
	want := filepath.Join(bin, "git.cmd")
	if err := os.WriteFile(want, []byte("@echo off\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := environ.FromList([]string{"Path=" + bin, "PATHEXT=.EXE;.CMD"})
	exe, err := Resolve("git", bin, env, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.EqualFold(exe.Path(), want) {
		t.Fatalf("Path = %q, want %q", exe.Path(), want)
	}

	env = environ.FromList([]string{"Path=" + bin, "PATHEXT=.EXE"})
	if _, err := Resolve("git", bin, env, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PATHEXT without .CMD should not match git.cmd, got %v", err)
	}
}

func TestCommandNameStripsExecutableSuffix(t *testing.T) {
	if got := CommandName(`C:\shims\git.exe`); got != "git" {
		t.Fatalf("CommandName = %q", got)
	}
}
