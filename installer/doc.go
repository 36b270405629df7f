// Package installer is the install orchestration engine behind setupflow.
//
// It offers the pieces an installer front end wires together:
//   - State: the user's choices and the cooperative abort flag
//   - EventQueue: the single ordered stream of user intents and engine events
//   - Pipeline: the fixed stage sequence (prepare, download, extract, clean up)
//   - Worker: runs one pipeline at a time in the background and joins it
//   - Controller: the event loop that drives screens and the worker
//   - Logger: leveled logging with an in-memory copy for display
//
// The engine never touches the UI. Presenters send intents into the queue
// and receive screen, stage and progress updates through the Presenter
// interface.
//
// # Basic Usage
//
//	log, err := installer.NewLogger("setupflow")
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//
//	queue := installer.NewEventQueue()
//	state := installer.DefaultState()
//	pipeline := installer.NewPipeline(
//	    installer.NewHTTPDownloader(installer.DefaultHTTPTimeout, log),
//	    &installer.ArchiveExtractor{Log: log},
//	    installer.WithSources(sources),
//	    installer.WithLogger(log),
//	)
//	ctrl := installer.NewController(installer.ControllerDeps{
//	    Queue:     queue,
//	    State:     state,
//	    Worker:    installer.NewWorker(pipeline, state, queue, log),
//	    Presenter: ui,
//	    Log:       log,
//	})
//	return ctrl.Run(ctx)
//
// # Stages
//
// Every run emits StageChanged at the start of each stage, in order:
//
//	Preparing -> DownloadingPrimary -> ExtractingPrimary
//	  [-> DownloadingOptional -> ExtractingOptional] -> CleaningUp
//
// Download and extract stages emit ProgressUpdate fractions that never
// decrease and stay within [0, 1]. The run ends with exactly one of
// Completed, Failed or Aborted, always the last event of that run.
//
// # Abort
//
// Abort is cooperative. The controller sets the flag in State; the pipeline
// samples it before each stage and on every progress report, and stops with
// OutcomeAborted. Worker.Cleanup always blocks until the run has exited, so
// a new run never overlaps the previous one.
//
// # Errors
//
// Stage failures are *ValidationError, *NetworkError or *ArchiveError and
// are returned from Worker.Cleanup. A panic inside the pipeline is logged as
// an *InternalFault and produces no reportable error. Clean-up failures are
// logged only.
package installer
