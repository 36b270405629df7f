package installer

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
)

var testSources = Sources{
	Standard: Source{URL: "https://example.test/game-standard.zip"},
	Deluxe:   Source{URL: "https://example.test/game-deluxe.zip"},
	Optional: Source{URL: "https://example.test/music.zip"},
}

// fakeDownloader reports four chunks of a 1024 byte transfer and writes a
// small file. A URL listed in fail reports half the transfer and returns
// the mapped error.
type fakeDownloader struct {
	mu   sync.Mutex
	urls []string
	fail map[string]error
}

func (d *fakeDownloader) Download(ctx context.Context, url, dest string, progress ProgressFunc) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	err := d.fail[url]
	d.mu.Unlock()

	if err != nil {
		progress(512, 1024)
		return err
	}
	for i := int64(1); i <= 4; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress(i*256, 1024)
	}
	return os.WriteFile(dest, []byte("archive"), 0644)
}

func (d *fakeDownloader) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// fakeExtractor reports entries one by one, calling onEntry before each.
type fakeExtractor struct {
	entries int
	onEntry func(i int)
	err     error
}

func (x *fakeExtractor) Extract(ctx context.Context, archive, dest string, progress ProgressFunc) error {
	n := x.entries
	if n == 0 {
		n = 4
	}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if x.onEntry != nil {
			x.onEntry(i)
		}
		progress(int64(i), int64(n))
	}
	return x.err
}

// eventLog collects emitted events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) emit(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func stagesOf(events []Event) []StageID {
	var stages []StageID
	for _, ev := range events {
		if ev.Kind == EventStageChanged {
			stages = append(stages, ev.Stage)
		}
	}
	return stages
}

// progressByStage groups progress fractions under the stage they followed.
func progressByStage(events []Event) map[StageID][]float64 {
	out := map[StageID][]float64{}
	current := StageID(-1)
	for _, ev := range events {
		switch ev.Kind {
		case EventStageChanged:
			current = ev.Stage
		case EventProgress:
			out[current] = append(out[current], ev.Fraction)
		}
	}
	return out
}

// runnerFunc adapts a function to PipelineRunner.
type runnerFunc func(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome

func (f runnerFunc) Run(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
	return f(ctx, snap, run, aborted, emit)
}

type abortFlag struct {
	v atomic.Bool
}

func (a *abortFlag) get() bool { return a.v.Load() }

// recordingPresenter remembers every call made by the controller.
type recordingPresenter struct {
	mu       sync.Mutex
	screens  []Screen
	stages   []StageID
	progress []float64
	options  []Snapshot
}

func (p *recordingPresenter) ShowScreen(s Screen) {
	p.mu.Lock()
	p.screens = append(p.screens, s)
	p.mu.Unlock()
}

func (p *recordingPresenter) SetStage(s StageID) {
	p.mu.Lock()
	p.stages = append(p.stages, s)
	p.mu.Unlock()
}

func (p *recordingPresenter) SetProgress(f float64) {
	p.mu.Lock()
	p.progress = append(p.progress, f)
	p.mu.Unlock()
}

func (p *recordingPresenter) SetOptions(s Snapshot) {
	p.mu.Lock()
	p.options = append(p.options, s)
	p.mu.Unlock()
}

func (p *recordingPresenter) Screens() []Screen {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Screen(nil), p.screens...)
}

func (p *recordingPresenter) Stages() []StageID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]StageID(nil), p.stages...)
}

func (p *recordingPresenter) LastOptions() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.options) == 0 {
		return Snapshot{}
	}
	return p.options[len(p.options)-1]
}

type recordingNotifier struct {
	mu       sync.Mutex
	alerts   []string
	messages []string
}

func (n *recordingNotifier) ShowAlert(text string) {
	n.mu.Lock()
	n.alerts = append(n.alerts, text)
	n.mu.Unlock()
}

func (n *recordingNotifier) ShowMessage(text string) {
	n.mu.Lock()
	n.messages = append(n.messages, text)
	n.mu.Unlock()
}

func (n *recordingNotifier) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type stubPicker struct {
	path string
}

func (p stubPicker) PickDirectory(string) string { return p.path }

type stubValidator struct {
	valid bool
}

func (v stubValidator) IsValidDestination(string) bool { return v.valid }

type recordingLinks struct {
	mu   sync.Mutex
	urls []string
}

func (l *recordingLinks) OpenLink(url string) error {
	l.mu.Lock()
	l.urls = append(l.urls, url)
	l.mu.Unlock()
	return nil
}

func (l *recordingLinks) URLs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.urls...)
}
