//go:build darwin

package platform

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the current user's Application Support
// directory, where the installer looks for its configuration file.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support"), nil
}

// UserCachePath returns the path to the current user's cache directory.
// This is ~/Library/Caches on macOS.
func UserCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Caches"), nil
}

// UserLogPath returns ~/Library/Logs/<app>.
func UserLogPath(app string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Logs", app), nil
}
