//go:build windows

package platform

import (
	"fmt"
	"os"
)

// IsWritableDir reports, as an error, why the current user cannot create
// files in dir. It returns nil when dir is writable.
//
// ACLs make the read-only attribute meaningless for directories on Windows,
// so this creates and removes a probe file.
func IsWritableDir(dir string) error {
	f, err := os.CreateTemp(dir, ".setupflow-probe-*")
	if err != nil {
		return fmt.Errorf("create probe in %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}
