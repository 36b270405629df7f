//go:build windows

package platform

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// UserConfigPath returns the current user's roaming AppData folder.
// Example: C:\Users\<user>\AppData\Roaming
func UserConfigPath() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_RoamingAppData, 0)
}

// UserCachePath returns the current user's local AppData folder.
// Example: C:\Users\<user>\AppData\Local
func UserCachePath() (string, error) {
	return windows.KnownFolderPath(windows.FOLDERID_LocalAppData, 0)
}

// UserLogPath returns %LOCALAPPDATA%\<app>\Logs.
func UserLogPath(app string) (string, error) {
	local, err := UserCachePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(local, app, "Logs"), nil
}
