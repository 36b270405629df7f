// Package platform provides the OS-specific pieces the installer needs:
// per-user configuration, cache and log directories, a single-instance
// lock, and a writability probe for install destinations.
//
// Windows, Linux and macOS are supported.
//
// # Example Usage
//
//	release, ok := platform.AcquireSingleInstance("setupflow")
//	if !ok {
//	    // Another installer is already running
//	    return
//	}
//	defer release()
//
//	if err := platform.IsWritableDir(dest); err != nil {
//	    return fmt.Errorf("destination not writable: %w", err)
//	}
package platform
