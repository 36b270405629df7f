package installer

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies a started worker. Run increases with every start and
// tags the events of that run; ID is a unique id used in logs.
type Handle struct {
	Run uint64
	ID  string
}

// workerResult is what a worker goroutine leaves behind: either a normal
// outcome, or a fault when the pipeline panicked.
type workerResult struct {
	outcome Outcome
	fault   *InternalFault
}

type workerJob struct {
	handle Handle
	done   chan struct{}
	result workerResult
}

// Worker runs at most one pipeline at a time in a background goroutine and
// joins it on Cleanup.
type Worker struct {
	pipeline PipelineRunner
	state    *State
	queue    *EventQueue
	log      *Logger

	mu      sync.Mutex
	current *workerJob
	runs    uint64
}

// NewWorker creates a worker that runs pipeline against state and sends the
// run's events to queue.
func NewWorker(pipeline PipelineRunner, state *State, queue *EventQueue, log *Logger) *Worker {
	return &Worker{
		pipeline: pipeline,
		state:    state,
		queue:    queue,
		log:      log,
	}
}

// Start launches a pipeline run on a snapshot of the current state. It
// fails with ErrWorkerRunning if the previous run has not been cleaned up.
//
// The abort flag is cleared here, which is safe because the previous run
// has been joined.
func (w *Worker) Start() (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		return Handle{}, ErrWorkerRunning
	}

	w.state.resetAbort()
	w.runs++
	job := &workerJob{
		handle: Handle{Run: w.runs, ID: uuid.NewString()},
		done:   make(chan struct{}),
	}
	w.current = job

	snap := w.state.Snapshot()
	go w.execute(job, snap, w.log.WithField("run", job.handle.ID))
	return job.handle, nil
}

func (w *Worker) execute(job *workerJob, snap Snapshot, log *Logger) {
	defer close(job.done)
	defer func() {
		if r := recover(); r != nil {
			job.result.fault = &InternalFault{Value: r, Stack: debug.Stack()}
			log.Error("Install worker crashed: %v\n%s", r, job.result.fault.Stack)
			w.queue.Send(FailedEvent(job.handle.Run))
		}
	}()

	log.Info("Install run %d started: destination=%s deluxe=%t optional_assets=%t",
		job.handle.Run, snap.Destination, snap.Deluxe, snap.IncludeOptionalAssets)

	outcome := w.pipeline.Run(context.Background(), snap, job.handle.Run, w.state.AbortRequested, w.queue.Send)
	job.result.outcome = outcome

	if outcome.Err != nil {
		log.Info("Install run %d finished: %s: %v", job.handle.Run, outcome.Kind, outcome.Err)
	} else {
		log.Info("Install run %d finished: %s", job.handle.Run, outcome.Kind)
	}
	w.queue.Send(outcome.terminalEvent(job.handle.Run))
}

// Cleanup waits for the current run to exit and releases its handle. It
// returns the run's error if the pipeline failed. A crashed run has
// already been logged and yields nil. Without a handle Cleanup returns nil
// immediately.
func (w *Worker) Cleanup() error {
	w.mu.Lock()
	job := w.current
	w.mu.Unlock()

	if job == nil {
		return nil
	}

	<-job.done

	w.mu.Lock()
	if w.current == job {
		w.current = nil
	}
	w.mu.Unlock()

	if job.result.fault != nil {
		return nil
	}
	if job.result.outcome.Kind == OutcomeFailed {
		return job.result.outcome.Err
	}
	return nil
}

// Running reports whether a run is in progress.
func (w *Worker) Running() bool {
	w.mu.Lock()
	job := w.current
	w.mu.Unlock()

	if job == nil {
		return false
	}
	select {
	case <-job.done:
		return false
	default:
		return true
	}
}
