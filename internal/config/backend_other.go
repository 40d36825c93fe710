//go:build !darwin

package config

import (
	"os"
	"path/filepath"
)

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{home}, fallback...)...)
	}
	return ""
}

func defaultDataDir() string {
	dir := xdgDir("XDG_DATA_HOME", ".local", "share")
	if dir == "" {
		return "crawldash-data"
	}
	return filepath.Join(dir, "crawldash")
}

func configFilePath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	dir := xdgDir("XDG_CONFIG_HOME", ".config")
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "crawldash", "config.json")
}

func newPlatformBackend() ConfigBackend {
	return newFileBackend(configFilePath())
}
