package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMappingMissingIsLocal(t *testing.T) {
	m, err := LoadMapping(t.TempDir())
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m != nil || m.Remote() {
		t.Fatalf("expected nil mapping, got %+v", m)
	}
}

func TestLoadMapping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, MarkerName), `
remote-host = "u@host"
remote-root = "/srv/repo"
git-dir = "."
`)
	m, err := LoadMapping(dir)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	want := &Mapping{RemoteHost: "u@host", RemoteRoot: "/srv/repo", GitDir: "."}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("LoadMapping = %+v, want %+v", m, want)
	}
	if !m.Remote() {
		t.Fatalf("expected remote mapping")
	}
}

func TestLoadMappingMalformed(t *testing.T) {
	cases := map[string]string{
		"syntax":       "remote-host = u@host\n",
		"unknown key":  "remote-hots = \"u@host\"\n",
		"root no host": "remote-root = \"/srv\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, MarkerName), content)
			if _, err := LoadMapping(dir); err == nil {
				t.Fatalf("expected error for %q", content)
			}
		})
	}
}

func TestSaveMappingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := Mapping{RemoteHost: "host", RemoteRoot: "/home/u/src"}
	if err := SaveMapping(dir, in); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}
	out, err := LoadMapping(dir)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if *out != in {
		t.Fatalf("round trip = %+v, want %+v", *out, in)
	}
	if err := SaveMapping(dir, Mapping{RemoteRoot: "/x"}); !errors.Is(err, ErrRootWithoutHost) {
		t.Fatalf("expected ErrRootWithoutHost, got %v", err)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.SSH != "ssh" || s.SCP != "scp" || s.StageDir != "/tmp" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if !s.PreservesIsatty("git") || s.PreservesIsatty("hg") {
		t.Fatalf("unexpected preserve-isatty defaults: %v", s.PreserveIsatty)
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
ssh = "/usr/bin/ssh"
ssh-options = "-o 'ControlPath=~/.ssh/cm %C' -o ControlMaster=auto"
stage-dir = "/var/tmp"
log-level = "DEBUG"
preserve-isatty = ["git", "hg"]

[env]
LANG = "C.UTF-8"
`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	opts, err := s.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	wantOpts := []string{"-o", "ControlPath=~/.ssh/cm %C", "-o", "ControlMaster=auto"}
	if !reflect.DeepEqual(opts, wantOpts) {
		t.Fatalf("Options = %#v, want %#v", opts, wantOpts)
	}
	if s.SSH != "/usr/bin/ssh" || s.SCP != "scp" || s.StageDir != "/var/tmp" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if !s.PreservesIsatty("hg") {
		t.Fatalf("hg should preserve isatty")
	}
	if s.Env["LANG"] != "C.UTF-8" {
		t.Fatalf("env not loaded: %v", s.Env)
	}
	t.Setenv(envLogLevel, "")
	if s.Level() != slog.LevelDebug {
		t.Fatalf("Level = %v, want debug", s.Level())
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"log level", `log-level = "loud"`, ErrInvalidLogLevel},
		{"stage dir", `stage-dir = "tmp"`, ErrRelativeStageDir},
		{"env name", "[env]\n\"NOT-VALID\" = \"x\"\n", ErrInvalidEnvName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tc.content)
			if _, err := LoadSettings(path); !errors.Is(err, tc.want) {
				t.Fatalf("LoadSettings error = %v, want %v", err, tc.want)
			}
		})
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `ssh-options = "-o 'unterminated"`)
	if _, err := LoadSettings(path); err == nil {
		t.Fatalf("expected error for unterminated ssh-options")
	}
}

func TestLevelEnvOverride(t *testing.T) {
	t.Setenv(envLogLevel, "error")
	if got := DefaultSettings().Level(); got != slog.LevelError {
		t.Fatalf("Level = %v, want error", got)
	}
}

func TestSettingsPathEnv(t *testing.T) {
	t.Setenv(envConfigPath, "/etc/sshfsexec.toml")
	if got := SettingsPath(); got != "/etc/sshfsexec.toml" {
		t.Fatalf("SettingsPath = %q", got)
	}
}
