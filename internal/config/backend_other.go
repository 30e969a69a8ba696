//go:build !darwin

package config

import (
	"os"
	"path/filepath"
)

// xdgDir returns $env, or ~/fallback when it is unset.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, fallback)
	}
	return ""
}

func defaultDataDir() string {
	dir := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if dir == "" {
		return "atelier-data"
	}
	return filepath.Join(dir, "atelier")
}

func configDir() string {
	dir := xdgDir("XDG_CONFIG_HOME", ".config")
	if dir == "" {
		return "."
	}
	return filepath.Join(dir, "atelier")
}
