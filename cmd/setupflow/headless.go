package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/crafted-tech/setupflow/installer"
)

// progressSteps is the resolution of the headless progress bar.
const progressSteps = 1000

var errCancelled = errors.New("installation cancelled")

// headless is the presenter for unattended installs. It starts the install
// as soon as the wizard opens, draws a progress bar per stage and closes
// the wizard when the run ends.
type headless struct {
	out   io.Writer
	queue *installer.EventQueue

	mu      sync.Mutex
	started time.Time
	dest    string
	bar     *progressbar.ProgressBar
	err     error
}

var (
	_ installer.Presenter       = (*headless)(nil)
	_ installer.DirectoryPicker = (*headless)(nil)
	_ installer.Notifier        = (*headless)(nil)
)

func newHeadless(out io.Writer, queue *installer.EventQueue) *headless {
	return &headless{out: out, queue: queue}
}

func (h *headless) ShowScreen(s installer.Screen) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch s {
	case installer.ScreenWelcome:
		if h.started.IsZero() {
			h.started = time.Now()
			h.queue.Send(installer.Intent(installer.EventInstallStart))
		}
	case installer.ScreenProgress:
		fmt.Fprintf(h.out, "Installing to %s\n", h.dest)
	case installer.ScreenDone:
		h.finishBar(true)
		fmt.Fprintf(h.out, "Installation complete in %s.\n", elapsed(h.started, time.Now()))
		h.queue.Send(installer.Intent(installer.EventClose))
	case installer.ScreenAborted:
		h.finishBar(false)
		fmt.Fprintln(h.out, "Installation cancelled.")
		h.err = errCancelled
		h.queue.Send(installer.Intent(installer.EventClose))
	}
}

func (h *headless) SetStage(stage installer.StageID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.finishBar(true)
	h.bar = progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(h.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%-28s", stage.Description())),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (h *headless) SetProgress(fraction float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bar != nil {
		_ = h.bar.Set(int(fraction * progressSteps))
	}
}

func (h *headless) SetOptions(snap installer.Snapshot) {
	h.mu.Lock()
	h.dest = snap.Destination
	h.mu.Unlock()
}

// PickDirectory never prompts; the destination comes from configuration.
func (h *headless) PickDirectory(string) string { return "" }

func (h *headless) ShowAlert(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.finishBar(false)
	fmt.Fprintf(h.out, "Error: %s\n", text)
	h.err = errors.New(text)
}

func (h *headless) ShowMessage(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "Warning: %s\n", text)
}

// Err returns why the install did not complete, or nil.
func (h *headless) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// finishBar ends the current bar, filling it if the stage completed.
func (h *headless) finishBar(complete bool) {
	if h.bar == nil {
		return
	}
	if complete {
		_ = h.bar.Finish()
	} else {
		_ = h.bar.Exit()
	}
	fmt.Fprintln(h.out)
	h.bar = nil
}

func elapsed(start, end time.Time) string {
	if end.Sub(start) < time.Second {
		return "less than a second"
	}
	return strings.TrimSpace(humanize.RelTime(start, end, "", ""))
}
