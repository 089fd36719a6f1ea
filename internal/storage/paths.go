// Package storage persists games, user preferences and game statistics.
package storage

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessgui"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chessgui/
// - Linux: ~/.local/share/chessgui/
// - Windows: %APPDATA%/chessgui/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	return ensureDir(filepath.Join(baseDir, appName))
}

// GetSavesDir returns the directory holding .sav files.
func GetSavesDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dataDir, "saves"))
}

// GetDatabaseDir returns the directory for storing the BadgerDB database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir, err := ensureDir(filepath.Join(dataDir, "db"))
	if err != nil {
		return "", err
	}
	log.Printf("[Storage] Database directory: %s", dbDir)
	return dbDir, nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
