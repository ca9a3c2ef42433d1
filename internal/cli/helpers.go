package cli

import (
	"os"

	"github.com/fatih/color"

	"github.com/brandonbloom/sshfsexec/internal/config"
	"github.com/brandonbloom/sshfsexec/internal/lookup"
)

const markerHint = config.MarkerName

var (
	colorGood  = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorBad   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	colorLabel = color.New(color.FgHiBlack).SprintFunc()
	colorValue = color.New(color.FgHiBlue).SprintFunc()
)

// locateSelf is replaced in tests.
var locateSelf = lookup.Self

func loadSettings() (config.Settings, error) {
	return config.LoadSettings(config.SettingsPath())
}

// workingDir returns dir, or the process working directory when dir is
// empty.
func workingDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

func mark(ok bool) string {
	if ok {
		return colorGood("✓")
	}
	return colorBad("✗")
}
