package installer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fractions(events []Event) []float64 {
	var out []float64
	for _, ev := range events {
		if ev.Kind == EventProgress {
			out = append(out, ev.Fraction)
		}
	}
	return out
}

func TestProgressReporter_KnownTotal(t *testing.T) {
	var log eventLog
	r := newProgressReporter(1, log.emit, nil, nil)

	r.Start()
	r.Report(100, 1000)
	r.Report(101, 1000) // below the minimum step
	r.Report(50, 1000)  // going backwards
	r.Report(2000, 1000)
	r.Finish()

	assert.Equal(t, []float64{0, 0.1, 1}, fractions(log.all()))
}

func TestProgressReporter_UnknownTotalStaysBelowOne(t *testing.T) {
	var log eventLog
	r := newProgressReporter(1, log.emit, nil, nil)

	r.Start()
	for done := int64(1 << 20); done <= 1<<32; done *= 2 {
		r.Report(done, -1)
	}
	got := fractions(log.all())
	require.NotEmpty(t, got)
	for i, f := range got {
		assert.Less(t, f, 1.0)
		if i > 0 {
			assert.Greater(t, f, got[i-1])
		}
	}
	assert.Equal(t, maxUnknownFraction, got[len(got)-1])

	r.Finish()
	got = fractions(log.all())
	assert.Equal(t, 1.0, got[len(got)-1])
}

func TestProgressReporter_AbortCancelsStage(t *testing.T) {
	var log eventLog
	var flag abortFlag
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newProgressReporter(1, log.emit, flag.get, cancel)

	r.Start()
	r.Report(1, 4)
	flag.v.Store(true)
	r.Report(2, 4)
	r.Report(3, 4)
	r.Finish()

	assert.True(t, r.AbortObserved())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, []float64{0, 0.25}, fractions(log.all()))
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.0, fraction(0, 100))
	assert.Equal(t, 0.0, fraction(-5, 100))
	assert.Equal(t, 0.5, fraction(50, 100))
	assert.Equal(t, 1.0, fraction(500, 100))
	assert.Equal(t, 0.5, fraction(unknownTotalScale, 0))
}
