//go:build linux || darwin

package platform

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// AcquireSingleInstance tries to acquire a file lock to prevent multiple instances.
// The name should be unique to your application (e.g., "com.mycompany.myapp").
// Returns a release function and true if the lock was acquired.
// Returns nil and false if another instance already holds the lock.
//
// Usage:
//
//	release, ok := platform.AcquireSingleInstance("com.mycompany.myapp")
//	if !ok {
//	    // Another instance is running
//	    return
//	}
//	defer release()
func AcquireSingleInstance(name string) (release func(), ok bool) {
	lockPath := lockFilePath(name)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		// Fail open: an unwritable cache must not block installation.
		return func() {}, true
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, false
	}

	file.Truncate(0)
	file.WriteString(strconv.Itoa(os.Getpid()))

	return func() {
		unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
		os.Remove(lockPath)
	}, true
}

// IsSingleInstanceRunning checks if another instance with the given name is running.
// This does not acquire the lock, just checks if it exists and is locked.
func IsSingleInstanceRunning(name string) bool {
	file, err := os.OpenFile(lockFilePath(name), os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer file.Close()

	if err := unix.Flock(int(file.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
		return true
	}
	unix.Flock(int(file.Fd()), unix.LOCK_UN)
	return false
}

func lockFilePath(name string) string {
	cacheDir, err := UserCachePath()
	if err != nil || os.MkdirAll(cacheDir, 0755) != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, name+".lock")
}
