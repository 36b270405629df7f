//go:build windows

package platform

import (
	"golang.org/x/sys/windows"
)

// AcquireSingleInstance tries to acquire a named mutex to prevent multiple instances.
// The name should be unique to your application (e.g., "MyCompany.MyApp").
// Returns a release function and true if the lock was acquired.
// Returns nil and false if another instance already holds the lock.
func AcquireSingleInstance(name string) (release func(), ok bool) {
	// Local\ keeps the lock per session; an installer runs as the user.
	mutexName, _ := windows.UTF16PtrFromString(`Local\` + name)

	handle, err := windows.CreateMutex(nil, false, mutexName)
	if err == windows.ERROR_ALREADY_EXISTS {
		if handle != 0 {
			windows.CloseHandle(handle)
		}
		return nil, false
	}
	if err != nil {
		// Fail open
		return func() {}, true
	}
	return func() { windows.CloseHandle(handle) }, true
}

// IsSingleInstanceRunning checks if another instance with the given name is running.
// This does not acquire the lock, just checks if it exists.
func IsSingleInstanceRunning(name string) bool {
	mutexName, _ := windows.UTF16PtrFromString(`Local\` + name)

	handle, err := windows.OpenMutex(windows.SYNCHRONIZE, false, mutexName)
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}
