package installer

import (
	"context"
	"path/filepath"

	"github.com/skratchdot/open-golang/open"
)

// Downloader fetches a remote archive to a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string, progress ProgressFunc) error
}

// Extractor unpacks an archive into a destination directory.
type Extractor interface {
	Extract(ctx context.Context, archive, dest string, progress ProgressFunc) error
}

// Presenter renders engine state. Calls come from the controller goroutine.
type Presenter interface {
	ShowScreen(screen Screen)
	SetStage(stage StageID)
	SetProgress(fraction float64)
	SetOptions(snap Snapshot)
}

// DirectoryPicker asks the user for a directory. An empty result means the
// user cancelled.
type DirectoryPicker interface {
	PickDirectory(prompt string) string
}

// DestinationValidator applies the domain rule for install destinations.
type DestinationValidator interface {
	IsValidDestination(path string) bool
}

// Notifier shows blocking alerts and informational messages.
type Notifier interface {
	ShowAlert(text string)
	ShowMessage(text string)
}

// LinkOpener opens an external URL.
type LinkOpener interface {
	OpenLink(url string) error
}

// MarkerValidator accepts a destination when it is a directory containing
// every marker path. With no markers any existing directory is accepted.
type MarkerValidator struct {
	Markers []string
}

// IsValidDestination implements DestinationValidator.
func (v MarkerValidator) IsValidDestination(path string) bool {
	if !DirExists(path) {
		return false
	}
	for _, marker := range v.Markers {
		matches, err := filepath.Glob(filepath.Join(path, marker))
		if err != nil || len(matches) == 0 {
			return false
		}
	}
	return true
}

// BrowserLinkOpener opens URLs with the system browser.
type BrowserLinkOpener struct{}

// OpenLink implements LinkOpener.
func (BrowserLinkOpener) OpenLink(url string) error {
	return open.Run(url)
}
