package installer

import "context"

// StepResult is what a stage action reports back to the pipeline.
type StepResult struct {
	// Info is logged with the stage name on success.
	Info string

	// Err fails the stage. ErrAborted, or any error seen after the abort
	// flag was raised, ends the run as aborted instead.
	Err error
}

// Success reports a finished stage with an optional log note.
func Success(info string) StepResult {
	return StepResult{Info: info}
}

// Failed reports a failed stage.
func Failed(err error) StepResult {
	return StepResult{Err: err}
}

// Step binds a stage of the plan to its action.
type Step struct {
	Stage StageID

	// BestEffort steps log their failure instead of failing the pipeline.
	BestEffort bool

	// Action runs the stage. Long-running actions report through progress
	// and return once ctx is cancelled.
	Action func(ctx context.Context, progress *ProgressReporter) StepResult
}
