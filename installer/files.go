package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/crafted-tech/setupflow/platform"
)

// versionFileName is the marker written into the destination after a
// successful install.
const versionFileName = ".version"

// DirExists returns true if the directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CheckDestination verifies that path is an existing, writable directory.
func CheckDestination(path string) error {
	if path == "" {
		return &ValidationError{Path: path, Reason: "no destination selected"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Path: path, Reason: "directory not found", Err: err}
	}
	if !info.IsDir() {
		return &ValidationError{Path: path, Reason: "not a directory"}
	}
	if err := platform.IsWritableDir(path); err != nil {
		return &ValidationError{Path: path, Reason: "directory not writable", Err: err}
	}
	return nil
}

// ReadVersionFile reads the installed version from dir.
// Returns empty string if the file doesn't exist.
func ReadVersionFile(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, versionFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteVersionFile records version in dir.
func WriteVersionFile(dir, version string) error {
	path := filepath.Join(dir, versionFileName)
	if err := os.WriteFile(path, []byte(version), 0644); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	return nil
}

// removeFiles deletes every path, ignoring ones that are already gone, and
// returns all failures combined.
func removeFiles(paths []string) error {
	var result *multierror.Error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
