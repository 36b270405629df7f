package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
)

// Source is one downloadable archive. SHA256 is optional.
type Source struct {
	URL    string
	SHA256 string
}

// Sources lists every archive the pipeline may fetch.
type Sources struct {
	Standard Source
	Deluxe   Source
	Optional Source
}

// Primary returns the primary archive for the chosen variant.
func (s Sources) Primary(deluxe bool) Source {
	if deluxe {
		return s.Deluxe
	}
	return s.Standard
}

// Config holds pipeline settings.
type Config struct {
	TempDir string
	Log     *Logger
	Sources Sources

	// Version is written to the destination after a successful install.
	// Empty disables the marker.
	Version string
}

// Option configures a Pipeline.
type Option func(*Config)

// WithTempDir sets where downloaded archives are stored.
func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log *Logger) Option {
	return func(c *Config) {
		c.Log = log
	}
}

// WithSources sets the archive sources.
func WithSources(sources Sources) Option {
	return func(c *Config) {
		c.Sources = sources
	}
}

// WithVersion sets the version recorded in the destination.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// PipelineRunner executes one install run and returns its outcome.
type PipelineRunner interface {
	Run(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome
}

// Pipeline runs the fixed stage sequence against a state snapshot.
type Pipeline struct {
	downloader Downloader
	extractor  Extractor
	cfg        Config
}

// NewPipeline creates a pipeline using the given collaborators.
func NewPipeline(downloader Downloader, extractor Extractor, opts ...Option) *Pipeline {
	cfg := Config{TempDir: os.TempDir()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pipeline{
		downloader: downloader,
		extractor:  extractor,
		cfg:        cfg,
	}
}

// Run executes every stage in order for snap. Events are tagged with run.
// The abort flag is sampled through aborted before each stage and on every
// progress report; once seen the run ends with OutcomeAborted.
//
// Run does not emit the terminal event; the worker does that from the
// returned outcome.
func (p *Pipeline) Run(ctx context.Context, snap Snapshot, run uint64, aborted func() bool, emit func(Event)) Outcome {
	if aborted == nil {
		aborted = func() bool { return false }
	}
	if emit == nil {
		emit = func(Event) {}
	}

	files := &runFiles{}
	outcome := p.runSteps(ctx, p.steps(snap, files), run, aborted, emit)
	if outcome.Kind != OutcomeSuccess {
		if err := removeFiles(files.all()); err != nil {
			p.cfg.Log.Warn("Failed to remove temporary files: %v", err)
		}
	}
	return outcome
}

func (p *Pipeline) runSteps(ctx context.Context, steps []Step, run uint64, aborted func() bool, emit func(Event)) Outcome {
	log := p.cfg.Log

	for _, step := range steps {
		if aborted() || ctx.Err() != nil {
			log.Warn("Installation aborted before %s", step.Stage)
			return Outcome{Kind: OutcomeAborted}
		}

		emit(StageEvent(run, step.Stage))
		log.Step("Starting: %s", step.Stage)

		stageCtx, cancel := context.WithCancel(ctx)
		reporter := newProgressReporter(run, emit, aborted, cancel)
		result := step.Action(stageCtx, reporter)
		cancel()

		if result.Err != nil {
			if reporter.AbortObserved() || errors.Is(result.Err, ErrAborted) || aborted() || ctx.Err() != nil {
				log.Warn("Installation aborted during %s: %v", step.Stage, result.Err)
				return Outcome{Kind: OutcomeAborted}
			}
			if step.BestEffort {
				log.Warn("%s failed, continuing: %v", step.Stage, result.Err)
				continue
			}
			log.Error("%s failed: %v", step.Stage, result.Err)
			return Outcome{Kind: OutcomeFailed, Err: result.Err}
		}

		if result.Info != "" {
			log.Info("%s done: %s", step.Stage, result.Info)
		} else {
			log.Info("%s done", step.Stage)
		}
	}

	log.Info("Installation pipeline finished")
	return Outcome{Kind: OutcomeSuccess}
}

// steps binds every stage of the plan for snap to its action.
func (p *Pipeline) steps(snap Snapshot, files *runFiles) []Step {
	plan := StagePlan(snap.IncludeOptionalAssets)
	steps := make([]Step, 0, len(plan))
	for _, stage := range plan {
		switch stage {
		case StagePreparing:
			steps = append(steps, p.prepareStep(snap.Destination))
		case StageDownloadingPrimary:
			steps = append(steps, p.downloadStep(stage, p.cfg.Sources.Primary(snap.Deluxe), "primary", &files.primary, files))
		case StageExtractingPrimary:
			steps = append(steps, p.extractStep(stage, &files.primary, snap.Destination))
		case StageDownloadingOptional:
			steps = append(steps, p.downloadStep(stage, p.cfg.Sources.Optional, "optional", &files.optional, files))
		case StageExtractingOptional:
			steps = append(steps, p.extractStep(stage, &files.optional, snap.Destination))
		case StageCleaningUp:
			steps = append(steps, p.cleanupStep(snap.Destination, files))
		}
	}
	return steps
}

func (p *Pipeline) prepareStep(dest string) Step {
	return Step{
		Stage: StagePreparing,
		Action: func(ctx context.Context, _ *ProgressReporter) StepResult {
			if err := CheckDestination(dest); err != nil {
				return Failed(err)
			}
			if p.cfg.Version == "" {
				return Success(dest)
			}
			existing := ReadVersionFile(dest)
			action := DetermineAction(existing, p.cfg.Version)
			if existing != "" {
				return Success(fmt.Sprintf("%s %s -> %s in %s", action, existing, p.cfg.Version, dest))
			}
			return Success(fmt.Sprintf("%s %s in %s", action, p.cfg.Version, dest))
		},
	}
}

func (p *Pipeline) downloadStep(stage StageID, src Source, name string, path *string, files *runFiles) Step {
	return Step{
		Stage: stage,
		Action: func(ctx context.Context, progress *ProgressReporter) StepResult {
			if src.URL == "" {
				return Failed(&NetworkError{Op: "get", URL: src.URL, Err: fmt.Errorf("no %s source configured", name)})
			}

			tmp, err := createTemp(p.cfg.TempDir, "setupflow-"+name+"-*.download")
			if err != nil {
				return Failed(&ArchiveError{Op: "write", Path: p.cfg.TempDir, Err: err})
			}
			*path = tmp.Name()
			files.add(tmp.Name())
			if err := tmp.Close(); err != nil {
				return Failed(&ArchiveError{Op: "write", Path: tmp.Name(), Err: err})
			}

			progress.Start()
			if err := p.downloader.Download(ctx, src.URL, *path, progress.Func()); err != nil {
				return Failed(err)
			}
			if src.SHA256 != "" {
				if err := VerifyChecksum(*path, src.SHA256); err != nil {
					return Failed(&NetworkError{Op: "verify", URL: src.URL, Err: err})
				}
			}
			progress.Finish()
			return Success(src.URL)
		},
	}
}

func (p *Pipeline) extractStep(stage StageID, path *string, dest string) Step {
	return Step{
		Stage: stage,
		Action: func(ctx context.Context, progress *ProgressReporter) StepResult {
			progress.Start()
			if err := p.extractor.Extract(ctx, *path, dest, progress.Func()); err != nil {
				return Failed(err)
			}
			progress.Finish()
			return Success(dest)
		},
	}
}

func (p *Pipeline) cleanupStep(dest string, files *runFiles) Step {
	return Step{
		Stage:      StageCleaningUp,
		BestEffort: true,
		Action: func(ctx context.Context, _ *ProgressReporter) StepResult {
			var result *multierror.Error
			if err := removeFiles(files.all()); err != nil {
				result = multierror.Append(result, err)
			}
			if p.cfg.Version != "" {
				if err := WriteVersionFile(dest, p.cfg.Version); err != nil {
					result = multierror.Append(result, err)
				}
			}
			if err := result.ErrorOrNil(); err != nil {
				return Failed(err)
			}
			return Success("")
		},
	}
}

// tempFile is the part of *os.File the download step needs.
type tempFile interface {
	Name() string
	Close() error
}

// createTemp creates the file a download is written to. Replaced in tests.
var createTemp = func(dir, pattern string) (tempFile, error) {
	return os.CreateTemp(dir, pattern)
}

// runFiles tracks the temporary files of one run.
type runFiles struct {
	primary  string
	optional string
	paths    []string
}

func (f *runFiles) add(path string) {
	f.paths = append(f.paths, path)
}

func (f *runFiles) all() []string {
	return f.paths
}
