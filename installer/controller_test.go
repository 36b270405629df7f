package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type controllerFixture struct {
	queue     *EventQueue
	state     *State
	worker    *Worker
	presenter *recordingPresenter
	notifier  *recordingNotifier
	links     *recordingLinks
	ctrl      *Controller
	done      chan error
}

func newControllerFixture(t *testing.T, runner PipelineRunner, configure func(*ControllerDeps)) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		queue:     NewEventQueue(),
		state:     NewState(t.TempDir()),
		presenter: &recordingPresenter{},
		notifier:  &recordingNotifier{},
		links:     &recordingLinks{},
		done:      make(chan error, 1),
	}
	f.worker = NewWorker(runner, f.state, f.queue, nil)

	deps := ControllerDeps{
		Queue:     f.queue,
		State:     f.state,
		Worker:    f.worker,
		Presenter: f.presenter,
		Validator: stubValidator{valid: true},
		Notifier:  f.notifier,
		Links:     f.links,
		LinkURLs: map[LinkKind]string{
			LinkCredits:   "https://example.test/credits",
			LinkChangelog: "https://example.test/changelog",
		},
	}
	if configure != nil {
		configure(&deps)
	}
	f.ctrl = NewController(deps)
	return f
}

func (f *controllerFixture) start(ctx context.Context) {
	go func() { f.done <- f.ctrl.Run(ctx) }()
}

func (f *controllerFixture) send(kinds ...EventKind) {
	for _, k := range kinds {
		f.queue.Send(Intent(k))
	}
}

// close asks the loop to exit and waits for it.
func (f *controllerFixture) close(t *testing.T) {
	t.Helper()
	f.send(EventClose)
	f.wait(t)
}

func (f *controllerFixture) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-f.done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("controller did not exit")
	}
}

func succeed(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
	for _, stage := range StagePlan(snap.IncludeOptionalAssets) {
		emit(StageEvent(run, stage))
		emit(ProgressEvent(run, 1))
	}
	return Outcome{Kind: OutcomeSuccess}
}

func TestController_PageNavigationStaysInBounds(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.send(EventPrevPage)
	for i := 0; i < 6; i++ {
		f.send(EventNextPage)
	}
	f.send(EventPrevPage)
	f.close(t)

	assert.Equal(t, ScreenSelectDirectory, f.ctrl.Screen())
	assert.Equal(t, []Screen{
		ScreenWelcome,
		ScreenLicense,
		ScreenSelectDirectory,
		ScreenOptions,
		ScreenSelectDirectory,
	}, f.presenter.Screens())
}

func TestController_PageTurnsIgnoredDuringInstall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		emit(StageEvent(run, StagePreparing))
		close(started)
		<-release
		return Outcome{Kind: OutcomeSuccess}
	})
	f := newControllerFixture(t, runner, nil)
	f.start(context.Background())

	f.send(EventNextPage, EventNextPage, EventNextPage, EventInstallStart)
	<-started
	f.send(EventPrevPage, EventNextPage)
	assert.Eventually(t, func() bool { return f.queue.Len() == 0 }, waitFor, tick)
	assert.Equal(t, ScreenProgress, f.ctrl.Screen())

	close(release)
	assert.Eventually(t, func() bool { return f.ctrl.Screen() == ScreenDone }, waitFor, tick)
	f.send(EventPrevPage)
	f.close(t)

	assert.Equal(t, ScreenDone, f.ctrl.Screen())
	assert.Equal(t, []Screen{
		ScreenWelcome,
		ScreenLicense,
		ScreenSelectDirectory,
		ScreenOptions,
		ScreenProgress,
		ScreenDone,
	}, f.presenter.Screens())
}

func TestController_InstallCompletes(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.send(EventToggleOptionalAssets, EventInstallStart)

	assert.Eventually(t, func() bool { return f.ctrl.Screen() == ScreenDone }, waitFor, tick)
	f.close(t)

	assert.Equal(t, StagePlan(true), f.presenter.Stages())
	assert.Contains(t, f.presenter.Screens(), ScreenProgress)
	assert.Empty(t, f.notifier.Alerts())
	assert.True(t, f.state.AbortRequested(), "done sets the abort flag")
}

func TestController_FailureShowsErrorAndCloses(t *testing.T) {
	cause := &NetworkError{Op: "get", URL: "https://example.test/game.zip", Err: errors.New("connection refused")}
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		emit(StageEvent(run, StagePreparing))
		emit(StageEvent(run, StageDownloadingPrimary))
		return Outcome{Kind: OutcomeFailed, Err: cause}
	})
	f := newControllerFixture(t, runner, nil)
	f.start(context.Background())

	f.send(EventInstallStart)
	f.wait(t)

	alerts := f.notifier.Alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "connection refused")
	assert.False(t, f.worker.Running())
}

func TestController_CrashShowsGenericMessage(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		panic("boom")
	})
	f := newControllerFixture(t, runner, nil)
	f.start(context.Background())

	f.send(EventInstallStart)
	f.wait(t)

	assert.Equal(t, []string{GenericFailureMessage}, f.notifier.Alerts())
}

func TestController_AbortRequestShowsAbortScreen(t *testing.T) {
	started := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		emit(StageEvent(run, StagePreparing))
		close(started)
		for !aborted() {
			time.Sleep(time.Millisecond)
		}
		return Outcome{Kind: OutcomeAborted}
	})
	f := newControllerFixture(t, runner, nil)
	f.start(context.Background())

	f.send(EventInstallStart)
	<-started
	f.send(EventAbortRequest)

	assert.Eventually(t, func() bool { return f.ctrl.Screen() == ScreenAborted }, waitFor, tick)
	f.close(t)

	assert.Empty(t, f.notifier.Alerts(), "abort is not an error")
}

func TestController_AbortRequestWithoutRunIsIgnored(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.send(EventAbortRequest)
	f.close(t)

	assert.Equal(t, ScreenWelcome, f.ctrl.Screen())
}

func TestController_RapidInstallStartsNeverOverlap(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		emit(StageEvent(run, StagePreparing))
		active.Add(-1)
		runs.Add(1)
		return Outcome{Kind: OutcomeSuccess}
	})
	f := newControllerFixture(t, runner, nil)
	f.start(context.Background())

	f.send(EventInstallStart, EventInstallStart)

	assert.Eventually(t, func() bool {
		return runs.Load() == 2 && f.ctrl.Screen() == ScreenDone
	}, waitFor, tick)
	f.close(t)

	assert.Equal(t, int32(1), maxActive.Load())
	// Events of the superseded first run are dropped.
	assert.Equal(t, []StageID{StagePreparing}, f.presenter.Stages())
}

func TestController_InstallStartWarnsOnInvalidDestination(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), func(d *ControllerDeps) {
		d.Validator = stubValidator{valid: false}
	})
	f.start(context.Background())

	f.send(EventInstallStart)
	assert.Eventually(t, func() bool { return f.ctrl.Screen() == ScreenDone }, waitFor, tick)
	f.close(t)

	assert.Len(t, f.notifier.Messages(), 1)
}

func TestController_DirectoryPick(t *testing.T) {
	existing := t.TempDir()
	file := filepath.Join(existing, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name      string
		picked    string
		valid     bool
		wantDest  func(initial string) string
		wantWarns int
	}{
		{
			name:     "valid directory",
			picked:   existing,
			valid:    true,
			wantDest: func(string) string { return existing },
		},
		{
			name:     "cancelled",
			picked:   "",
			valid:    true,
			wantDest: func(initial string) string { return initial },
		},
		{
			name:     "missing directory",
			picked:   filepath.Join(existing, "missing"),
			valid:    true,
			wantDest: func(initial string) string { return initial },
		},
		{
			name:     "file instead of directory",
			picked:   file,
			valid:    true,
			wantDest: func(initial string) string { return initial },
		},
		{
			name:     "filesystem root",
			picked:   string(filepath.Separator),
			valid:    true,
			wantDest: func(initial string) string { return initial },
		},
		{
			name:      "rejected by validator is still accepted",
			picked:    existing,
			valid:     false,
			wantDest:  func(string) string { return existing },
			wantWarns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, runnerFunc(succeed), func(d *ControllerDeps) {
				d.Picker = stubPicker{path: tt.picked}
				d.Validator = stubValidator{valid: tt.valid}
			})
			initial := f.state.Destination()
			f.start(context.Background())

			f.send(EventDirPick)
			f.close(t)

			assert.Equal(t, tt.wantDest(initial), f.state.Destination())
			assert.Len(t, f.notifier.Messages(), tt.wantWarns)
		})
	}
}

func TestController_Toggles(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.send(EventToggleVariant, EventToggleOptionalAssets, EventToggleVolume)
	f.close(t)

	for _, snap := range []Snapshot{f.state.Snapshot(), f.presenter.LastOptions()} {
		assert.True(t, snap.Deluxe)
		assert.True(t, snap.IncludeOptionalAssets)
		assert.Equal(t, 0.0, snap.Volume)
	}
}

func TestController_OpenLink(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.queue.Send(OpenLinkIntent(LinkChangelog))
	f.queue.Send(OpenLinkIntent(LinkCredits))
	f.close(t)

	assert.Equal(t, []string{"https://example.test/changelog", "https://example.test/credits"}, f.links.URLs())
}

func TestController_StaleEngineEventsAreDropped(t *testing.T) {
	f := newControllerFixture(t, runnerFunc(succeed), nil)
	f.start(context.Background())

	f.queue.Send(StageEvent(42, StageExtractingPrimary))
	f.queue.Send(CompletedEvent(42))
	f.close(t)

	assert.Empty(t, f.presenter.Stages())
	assert.Equal(t, ScreenWelcome, f.ctrl.Screen())
}

func TestController_ShutdownJoinsWorker(t *testing.T) {
	started := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
		close(started)
		for !aborted() {
			time.Sleep(time.Millisecond)
		}
		return Outcome{Kind: OutcomeAborted}
	})
	f := newControllerFixture(t, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.start(ctx)

	f.send(EventInstallStart)
	<-started
	cancel()

	select {
	case err := <-f.done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("controller did not exit")
	}
	assert.True(t, f.state.AbortRequested())
	assert.False(t, f.worker.Running())
}
