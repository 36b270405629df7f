package installer

import "context"

const (
	// unknownTotalScale is the byte or entry count at which an unknown-size
	// transfer is reported as half done.
	unknownTotalScale = 4 << 20

	// maxUnknownFraction caps estimates for unknown totals until the stage
	// finishes.
	maxUnknownFraction = 0.99

	// minProgressStep suppresses updates smaller than half a percent.
	minProgressStep = 0.005
)

// ProgressFunc receives the amount of work done so far and the expected
// total. A total <= 0 means the total is unknown.
type ProgressFunc func(done, total int64)

// ProgressReporter converts byte or entry counts from a collaborator into
// ProgressUpdate events for one stage. Emitted fractions never decrease and
// always lie in [0, 1].
//
// Every report samples the abort flag; once it is set the reporter cancels
// the stage context and emits nothing more.
type ProgressReporter struct {
	run     uint64
	emit    func(Event)
	aborted func() bool
	cancel  context.CancelFunc

	last     float64
	emitted  bool
	observed bool
}

func newProgressReporter(run uint64, emit func(Event), aborted func() bool, cancel context.CancelFunc) *ProgressReporter {
	return &ProgressReporter{
		run:     run,
		emit:    emit,
		aborted: aborted,
		cancel:  cancel,
	}
}

// Start emits the initial 0 fraction.
func (p *ProgressReporter) Start() {
	p.send(0)
}

// Report converts done/total to a fraction and emits it if it moved enough.
func (p *ProgressReporter) Report(done, total int64) {
	if p.checkAbort() {
		return
	}
	f := fraction(done, total)
	if p.emitted && f <= p.last {
		return
	}
	if p.emitted && f < 1 && f-p.last < minProgressStep {
		return
	}
	p.send(f)
}

// Finish emits 1.0 unless it was already reported or the stage was aborted.
func (p *ProgressReporter) Finish() {
	if p.checkAbort() || (p.emitted && p.last >= 1) {
		return
	}
	p.send(1)
}

// Func returns Report as a ProgressFunc for collaborators.
func (p *ProgressReporter) Func() ProgressFunc {
	return p.Report
}

// AbortObserved reports whether the reporter saw the abort flag.
func (p *ProgressReporter) AbortObserved() bool {
	return p.observed
}

func (p *ProgressReporter) checkAbort() bool {
	if p.observed {
		return true
	}
	if p.aborted != nil && p.aborted() {
		p.observed = true
		if p.cancel != nil {
			p.cancel()
		}
		return true
	}
	return false
}

func (p *ProgressReporter) send(f float64) {
	p.last = f
	p.emitted = true
	if p.emit != nil {
		p.emit(ProgressEvent(p.run, f))
	}
}

func fraction(done, total int64) float64 {
	if done <= 0 {
		return 0
	}
	if total > 0 {
		f := float64(done) / float64(total)
		if f > 1 {
			return 1
		}
		return f
	}
	f := float64(done) / float64(done+unknownTotalScale)
	if f > maxUnknownFraction {
		return maxUnknownFraction
	}
	return f
}
