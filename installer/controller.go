package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// Screen is a page of the installer wizard.
type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenLicense
	ScreenSelectDirectory
	ScreenOptions
	ScreenProgress
	ScreenAborted
	ScreenDone
)

// lastPage is the last screen reachable with next/previous. Progress is
// entered only by starting an install and left only through the run's
// outcome.
const lastPage = ScreenOptions

func (s Screen) String() string {
	switch s {
	case ScreenWelcome:
		return "Welcome"
	case ScreenLicense:
		return "License"
	case ScreenSelectDirectory:
		return "SelectDirectory"
	case ScreenOptions:
		return "Options"
	case ScreenProgress:
		return "Progress"
	case ScreenAborted:
		return "Aborted"
	case ScreenDone:
		return "Done"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// GenericFailureMessage is shown when a run failed without a reportable
// error.
const GenericFailureMessage = "The installation failed unexpectedly. See the log file for details."

// ControllerDeps are the controller's collaborators. Queue, State and
// Worker are required; the rest fall back to no-op implementations.
type ControllerDeps struct {
	Queue     *EventQueue
	State     *State
	Worker    *Worker
	Presenter Presenter
	Picker    DirectoryPicker
	Validator DestinationValidator
	Notifier  Notifier
	Links     LinkOpener
	LinkURLs  map[LinkKind]string
	Log       *Logger
}

// Controller consumes events one at a time and drives the wizard and the
// install worker.
type Controller struct {
	deps ControllerDeps
	log  *Logger

	mu     sync.Mutex
	screen Screen

	// run is the worker run whose events are current. Events from older
	// runs are dropped.
	run uint64
}

// NewController creates a controller on the welcome screen.
func NewController(deps ControllerDeps) *Controller {
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	if deps.Picker == nil {
		deps.Picker = nopPicker{}
	}
	if deps.Validator == nil {
		deps.Validator = MarkerValidator{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Links == nil {
		deps.Links = BrowserLinkOpener{}
	}
	return &Controller{
		deps:   deps,
		log:    deps.Log,
		screen: ScreenWelcome,
	}
}

// Screen returns the screen currently shown.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Run processes events until RequestClose, ctx cancellation or the queue
// being closed. On return the abort flag is set and any running worker has
// been joined.
func (c *Controller) Run(ctx context.Context) error {
	defer c.shutdown()

	c.deps.Presenter.ShowScreen(c.Screen())
	c.deps.Presenter.SetOptions(c.deps.State.Snapshot())

	for {
		ev, err := c.deps.Queue.Recv(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return nil
			}
			return err
		}
		if !c.dispatch(ev) {
			c.log.Info("Close requested")
			return nil
		}
	}
}

// dispatch handles one event and reports whether the loop should continue.
func (c *Controller) dispatch(ev Event) bool {
	if ev.Kind.Engine() && ev.Run != c.run {
		c.log.Debug("Dropping stale event %s", ev)
		return true
	}
	if ev.Kind != EventProgress {
		c.log.Debug("Event %s", ev)
	}

	switch ev.Kind {
	case EventProgress:
		c.deps.Presenter.SetProgress(ev.Fraction)
	case EventStageChanged:
		c.deps.Presenter.SetStage(ev.Stage)
	case EventFailed:
		c.onFailed()
	case EventAborted:
		c.deps.State.RequestAbort()
		if err := c.deps.Worker.Cleanup(); err != nil {
			c.log.Warn("Aborted run reported: %v", err)
		}
		c.show(ScreenAborted)
	case EventCompleted:
		c.deps.State.RequestAbort()
		if err := c.deps.Worker.Cleanup(); err != nil {
			c.log.Warn("Completed run reported: %v", err)
		}
		c.show(ScreenDone)

	case EventNextPage:
		c.turnPage(1)
	case EventPrevPage:
		c.turnPage(-1)
	case EventDirPick:
		c.pickDirectory()
	case EventToggleVariant:
		c.log.Info("Deluxe variant: %t", c.deps.State.ToggleDeluxe())
		c.deps.Presenter.SetOptions(c.deps.State.Snapshot())
	case EventToggleOptionalAssets:
		c.log.Info("Optional assets: %t", c.deps.State.ToggleOptionalAssets())
		c.deps.Presenter.SetOptions(c.deps.State.Snapshot())
	case EventToggleVolume:
		c.log.Info("Volume: %.1f", c.deps.State.ToggleMute())
		c.deps.Presenter.SetOptions(c.deps.State.Snapshot())
	case EventInstallStart:
		c.startInstall()
	case EventAbortRequest:
		if c.deps.Worker.Running() {
			c.log.Warn("Abort requested")
			c.deps.State.RequestAbort()
		}
	case EventOpenLink:
		c.openLink(ev.Link)
	case EventClose:
		return false
	default:
		c.log.Warn("Unhandled event %s", ev)
	}
	return true
}

func (c *Controller) onFailed() {
	c.deps.State.RequestAbort()
	err := c.deps.Worker.Cleanup()

	msg := GenericFailureMessage
	if err != nil {
		c.log.Error("Installation failed: %v", err)
		msg = fmt.Sprintf("Installation failed: %v", err)
	} else {
		c.log.Error("Installation failed without a reportable error")
	}
	c.deps.Notifier.ShowAlert(msg)
	c.deps.Queue.Send(Intent(EventClose))
}

func (c *Controller) startInstall() {
	dest := c.deps.State.Destination()
	if !c.deps.Validator.IsValidDestination(dest) {
		c.log.Warn("Destination %s does not look like a valid install location", dest)
		c.deps.Notifier.ShowMessage(fmt.Sprintf("%s does not look like a valid installation folder. Installing anyway.", dest))
	}

	c.show(ScreenProgress)

	if err := c.deps.Worker.Cleanup(); err != nil {
		c.log.Warn("Previous run reported: %v", err)
	}
	handle, err := c.deps.Worker.Start()
	if err != nil {
		c.log.Error("Failed to start installation: %v", err)
		return
	}
	c.run = handle.Run
	c.log.Step("Installation started (run %d, %s)", handle.Run, handle.ID)
}

func (c *Controller) turnPage(delta int) {
	current := c.Screen()
	if current > lastPage {
		return
	}
	next := current + Screen(delta)
	if next < ScreenWelcome || next > lastPage {
		return
	}
	c.show(next)
}

func (c *Controller) pickDirectory() {
	path := c.deps.Picker.PickDirectory("Select the installation folder")
	if path == "" {
		return
	}

	clean := filepath.Clean(path)
	if !DirExists(clean) || filepath.Dir(clean) == clean {
		c.log.Warn("Ignoring destination %s: not a directory with a parent", clean)
		return
	}
	if !c.deps.Validator.IsValidDestination(clean) {
		c.log.Warn("Destination %s does not look like a valid install location", clean)
		c.deps.Notifier.ShowMessage(fmt.Sprintf("%s does not look like a valid installation folder.", clean))
	}

	c.deps.State.SetDestination(clean)
	c.log.Info("Destination: %s", clean)
	c.deps.Presenter.SetOptions(c.deps.State.Snapshot())
}

func (c *Controller) openLink(kind LinkKind) {
	url := c.deps.LinkURLs[kind]
	if url == "" {
		c.log.Warn("No URL configured for %s link", kind)
		return
	}
	if err := c.deps.Links.OpenLink(url); err != nil {
		c.log.Warn("Failed to open %s: %v", url, err)
	}
}

func (c *Controller) show(screen Screen) {
	c.mu.Lock()
	c.screen = screen
	c.mu.Unlock()
	c.deps.Presenter.ShowScreen(screen)
}

func (c *Controller) shutdown() {
	c.deps.State.RequestAbort()
	if err := c.deps.Worker.Cleanup(); err != nil {
		c.log.Warn("Run reported during shutdown: %v", err)
	}
}

type nopPresenter struct{}

func (nopPresenter) ShowScreen(Screen)   {}
func (nopPresenter) SetStage(StageID)    {}
func (nopPresenter) SetProgress(float64) {}
func (nopPresenter) SetOptions(Snapshot) {}

type nopPicker struct{}

func (nopPicker) PickDirectory(string) string { return "" }

type nopNotifier struct{}

func (nopNotifier) ShowAlert(string)   {}
func (nopNotifier) ShowMessage(string) {}
