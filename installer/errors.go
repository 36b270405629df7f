package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned by stage actions that stopped because the
	// abort flag was observed.
	ErrAborted = errors.New("installation aborted")

	// ErrWorkerRunning is returned by Worker.Start when the previous worker
	// has not been cleaned up yet.
	ErrWorkerRunning = errors.New("install worker already running")

	// ErrQueueClosed is returned by EventQueue.Recv after Close once the
	// queue has been drained.
	ErrQueueClosed = errors.New("event queue closed")

	// ErrUnsupportedFormat is wrapped by ArchiveError when the archive type
	// cannot be recognized.
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// ErrUnsafePath is wrapped by ArchiveError when an entry would be
	// written outside the destination directory.
	ErrUnsafePath = errors.New("archive entry escapes destination")

	// ErrTruncated is wrapped by NetworkError when fewer bytes arrived than
	// the server announced.
	ErrTruncated = errors.New("transfer truncated")

	// ErrChecksumMismatch is wrapped by NetworkError when the downloaded
	// file does not match the configured digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ValidationError reports a destination that cannot receive the install.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid destination %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid destination %q: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NetworkError reports a failed download.
type NetworkError struct {
	Op  string // "get", "read", "verify"
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("download %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ArchiveError reports a corrupt, unsupported or unsafe archive, or a
// failure writing to disk.
type ArchiveError struct {
	Op    string // "open", "read", "write"
	Path  string
	Entry string
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive %s %s [%s]: %v", e.Op, e.Path, e.Entry, e.Err)
	}
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// InternalFault describes a worker that terminated abnormally. It carries
// no detail meant for the user.
type InternalFault struct {
	Value any
	Stack []byte
}

func (f *InternalFault) Error() string {
	return fmt.Sprintf("install worker crashed: %v", f.Value)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsArchive reports whether err is or wraps an *ArchiveError.
func IsArchive(err error) bool {
	var target *ArchiveError
	return errors.As(err, &target)
}
