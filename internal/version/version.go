package version

import (
	"runtime/debug"
	"strings"
)

const devel = "(devel)"

// Info describes the running binary.
type Info struct {
	Version  string
	Revision string
	Modified bool
}

// Read extracts Info from the embedded build information.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: devel}
	}
	return fromBuildInfo(bi)
}

func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{Version: bi.Main.Version}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if info.Version == "" || strings.Contains(info.Version, "+dirty") || isPseudoVersion(info.Version) {
		info.Version = devel
	}
	return info
}

// String is the release version, or "(devel)" with the short revision when
// built from a checkout.
func (i Info) String() string {
	if i.Version != devel || i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if i.Modified {
		rev += "-dirty"
	}
	return devel + " " + rev
}

func String() string {
	return Read().String()
}

func isPseudoVersion(v string) bool {
	v, _, _ = strings.Cut(v, "+")

	parts := strings.Split(v, "-")
	if len(parts) < 3 {
		return false
	}
	ts := parts[len(parts)-2]
	if i := strings.LastIndexByte(ts, '.'); i >= 0 {
		ts = ts[i+1:]
	}
	hash := parts[len(parts)-1]
	return len(ts) == 14 && allIn(ts, "0123456789") && len(hash) >= 12 && allIn(strings.ToLower(hash), "0123456789abcdef")
}

func allIn(s, set string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(set, s[i]) < 0 {
			return false
		}
	}
	return true
}
