package store

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the directory holding the local database.
// Defaults to ~/.tally, falls back to ./.tally if the home dir is
// unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".tally")
	}
	return filepath.Join(home, ".tally")
}

// DefaultDBPath returns the full path to the local habits database file.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "tally.db")
}
