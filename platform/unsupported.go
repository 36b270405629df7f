//go:build !windows && !linux && !darwin

package platform

// The platform package supports Windows, Linux, and macOS only.
// To add a platform, implement the paths, instance and writable functions
// for it and extend the build tags.

const platformUnsupported = "platform package requires Windows, Linux, or macOS - see platform/unsupported.go"

// This line intentionally causes a compile error on unsupported platforms.
var _ int = platformUnsupported
