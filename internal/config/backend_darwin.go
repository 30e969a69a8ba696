//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func appSupportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "atelier")
	}
	return ""
}

func defaultDataDir() string {
	if dir := appSupportDir(); dir != "" {
		return dir
	}
	return "atelier-data"
}

// configDir shares Application Support with the data; macOS has no separate
// per-user config root.
func configDir() string {
	if dir := appSupportDir(); dir != "" {
		return dir
	}
	return "."
}
