//go:build linux

package platform

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the current user's config directory.
// This is $XDG_CONFIG_HOME or ~/.config by default.
func UserConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// UserCachePath returns the path to the current user's cache directory.
// This is $XDG_CACHE_HOME or ~/.cache by default.
func UserCachePath() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache"), nil
}

// UserLogPath returns the directory for the application's log files.
// Logs are state, so this is $XDG_STATE_HOME/<app> or ~/.local/state/<app>.
func UserLogPath(app string) (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, app), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", app), nil
}
