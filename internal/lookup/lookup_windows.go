//go:build windows

package lookup

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/sshfsexec/internal/environ"
)

const defaultPathExt = ".COM;.EXE;.BAT;.CMD"

func pathExts(raw string) []string {
	if raw == "" {
		raw = defaultPathExt
	}
	var exts []string
	for _, ext := range strings.Split(strings.ToLower(raw), ";") {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

func hasExecutableExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}

func candidates(name string, env environ.Env) []string {
	exts := pathExts(env.Get("PATHEXT"))
	if hasExecutableExt(name, exts) {
		return []string{name}
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, name+ext)
	}
	return out
}

func isExecutable(path string, env environ.Env) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return hasExecutableExt(path, pathExts(env.Get("PATHEXT")))
}

// trimExecutableSuffix only sees argv[0], which the loader resolved with the
// standard extensions.
func trimExecutableSuffix(name string) string {
	if hasExecutableExt(name, pathExts("")) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
