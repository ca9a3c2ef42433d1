package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// MarkerName is the per-directory file that maps a mounted directory to
// its remote origin.
const MarkerName = ".sshfsexec.toml"

// ErrRootWithoutHost indicates a marker names a remote root but no host.
var ErrRootWithoutHost = errors.New("remote-root is set but remote-host is empty")

// Mapping is the content of a marker file.
type Mapping struct {
	RemoteHost string `toml:"remote-host"`
	RemoteRoot string `toml:"remote-root"`
	GitDir     string `toml:"git-dir"`
}

// Remote reports whether commands in the directory run on another host.
func (m *Mapping) Remote() bool {
	return m != nil && m.RemoteHost != ""
}

func (m Mapping) Validate() error {
	if m.RemoteHost == "" && m.RemoteRoot != "" {
		return ErrRootWithoutHost
	}
	return nil
}

// LoadMapping reads the marker in dir. A directory without a marker is
// local and yields a nil Mapping; a marker that cannot be decoded is an
// error.
func LoadMapping(dir string) (*Mapping, error) {
	path := filepath.Join(dir, MarkerName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var m Mapping
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m.RemoteHost = strings.TrimSpace(m.RemoteHost)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// SaveMapping writes a marker into dir.
func SaveMapping(dir string, m Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MarkerName), data, 0o644)
}
