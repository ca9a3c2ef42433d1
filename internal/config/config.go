package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	envConfigPath = "SSHFSEXEC_CONFIG"
	envLogLevel   = "SSHFSEXEC_LOG"
)

// Settings captures the user-wide options stored in config.toml.
type Settings struct {
	SSH            string            `toml:"ssh"`
	SCP            string            `toml:"scp"`
	SSHOptions     string            `toml:"ssh-options"`
	StageDir       string            `toml:"stage-dir"`
	LogLevel       string            `toml:"log-level"`
	PreserveIsatty []string          `toml:"preserve-isatty"`
	Env            map[string]string `toml:"env"`
}

var (
	// ErrInvalidLogLevel indicates log-level is not recognized.
	ErrInvalidLogLevel = errors.New("log-level must be debug, info, warn, or error")
	// ErrRelativeStageDir indicates stage-dir is not an absolute remote path.
	ErrRelativeStageDir = errors.New("stage-dir must be an absolute path")
	// ErrInvalidEnvName indicates an [env] key is not a shell variable name.
	ErrInvalidEnvName = errors.New("env keys must be valid shell variable names")

	envName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	var s Settings
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.SSH == "" {
		s.SSH = "ssh"
	}
	if s.SCP == "" {
		s.SCP = "scp"
	}
	if s.StageDir == "" {
		s.StageDir = "/tmp"
	}
	if s.LogLevel == "" {
		s.LogLevel = "warn"
	} else {
		s.LogLevel = strings.ToLower(s.LogLevel)
	}
	if s.PreserveIsatty == nil {
		s.PreserveIsatty = []string{"git"}
	}
}

// Validate ensures the settings can drive the shim.
func (s Settings) Validate() error {
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	if !path.IsAbs(s.StageDir) {
		return ErrRelativeStageDir
	}
	for key := range s.Env {
		if !envName.MatchString(key) {
			return fmt.Errorf("%w: %q", ErrInvalidEnvName, key)
		}
	}
	if _, err := s.Options(); err != nil {
		return err
	}
	return nil
}

// Options splits ssh-options into arguments shared by ssh and scp.
func (s Settings) Options() ([]string, error) {
	if strings.TrimSpace(s.SSHOptions) == "" {
		return nil, nil
	}
	opts, err := shellquote.Split(s.SSHOptions)
	if err != nil {
		return nil, fmt.Errorf("ssh-options: %w", err)
	}
	return opts, nil
}

// PreservesIsatty reports whether command expects the remote side to see
// exactly the local per-stream terminal state.
func (s Settings) PreservesIsatty(command string) bool {
	return slices.Contains(s.PreserveIsatty, command)
}

// Level returns the slog level, honoring SSHFSEXEC_LOG over the file.
func (s Settings) Level() slog.Level {
	if raw := os.Getenv(envLogLevel); raw != "" {
		if level, err := parseLevel(strings.ToLower(raw)); err == nil {
			return level
		}
	}
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, ErrInvalidLogLevel
	}
}

// SettingsPath is $SSHFSEXEC_CONFIG, or config.toml in the user config dir.
func SettingsPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sshfsexec", "config.toml")
}

// LoadSettings reads settings from disk. Missing files return defaults.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
