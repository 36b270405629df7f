package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/crafted-tech/setupflow"
	"github.com/crafted-tech/setupflow/config"
	"github.com/crafted-tech/setupflow/installer"
	"github.com/crafted-tech/setupflow/platform"
	"github.com/crafted-tech/setupflow/tui"
)

// app holds the engine pieces shared by every front end.
type app struct {
	cfg     config.Config
	log     *installer.Logger
	queue   *installer.EventQueue
	state   *installer.State
	worker  *installer.Worker
	license string
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	release, ok := platform.AcquireSingleInstance(config.AppName)
	if !ok {
		return errors.New("another setupflow installer is already running")
	}
	defer release()

	logger, err := openLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Close()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	stop := a.forwardSignals(ctx)
	defer stop()

	mode := selectUI(cfg.UI.Mode, detectUI())
	logger.Info("setupflow %s starting (ui=%s, log=%s)", version, mode, logger.Path())

	switch mode {
	case config.UIGUI:
		return a.runGUI(ctx)
	case config.UITUI:
		return a.runTUI(ctx)
	default:
		return a.runHeadless(ctx, out)
	}
}

func openLogger(cfg config.LogConfig) (*installer.Logger, error) {
	var (
		logger *installer.Logger
		err    error
	)
	path := cfg.File
	if path == "" {
		if dir, dirErr := platform.UserLogPath(config.AppName); dirErr == nil {
			path = filepath.Join(dir, config.AppName+".log")
		}
	}
	if path != "" {
		logger, err = installer.NewLoggerToFile(path)
	} else {
		logger, err = installer.NewLogger(config.AppName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if err := logger.SetLevel(cfg.Level); err != nil {
		logger.Close()
		return nil, err
	}
	return logger, nil
}

func newApp(cfg config.Config, logger *installer.Logger) (*app, error) {
	state := installer.DefaultState()
	if cfg.Install.Destination != "" {
		state.SetDestination(cfg.Install.Destination)
	}
	state.SetDeluxe(cfg.Install.Deluxe)
	state.SetIncludeOptionalAssets(cfg.Install.OptionalAssets)

	license := ""
	if cfg.UI.LicenseFile != "" {
		data, err := os.ReadFile(cfg.UI.LicenseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read license: %w", err)
		}
		license = string(data)
	}

	queue := installer.NewEventQueue()
	pipeline := installer.NewPipeline(
		installer.NewHTTPDownloader(cfg.HTTP.Timeout, logger),
		&installer.ArchiveExtractor{Log: logger},
		installer.WithSources(cfg.ArchiveSources()),
		installer.WithVersion(cfg.Install.Version),
		installer.WithLogger(logger),
	)

	return &app{
		cfg:     cfg,
		log:     logger,
		queue:   queue,
		state:   state,
		worker:  installer.NewWorker(pipeline, state, queue, logger),
		license: license,
	}, nil
}

func (a *app) controllerDeps() installer.ControllerDeps {
	return installer.ControllerDeps{
		Queue:     a.queue,
		State:     a.state,
		Worker:    a.worker,
		Validator: installer.MarkerValidator{Markers: a.cfg.Install.Markers},
		LinkURLs:  a.cfg.LinkURLs(),
		Log:       a.log,
	}
}

// forwardSignals turns SIGINT/SIGTERM into the cancel button while an
// install is running, and into a close request otherwise.
func (a *app) forwardSignals(ctx context.Context) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigCh:
				a.log.Warn("Received %s", sig)
				if a.worker.Running() {
					a.queue.Send(installer.Intent(installer.EventAbortRequest))
				} else {
					a.queue.Send(installer.Intent(installer.EventClose))
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func (a *app) runGUI(ctx context.Context) error {
	if status := setupflow.CheckWebView2(); !status.Installed {
		setupflow.NativeError("Setup", "This installer needs the Microsoft Edge WebView2 runtime.\n\nDownload it from "+setupflow.WebView2InstallURL)
		return errors.New("webview2 runtime is not installed")
	}

	opts, err := windowOptions(a.cfg.UI)
	if err != nil {
		return err
	}
	opts = append(opts,
		setupflow.WithLicense(a.license),
		setupflow.WithLogger(a.log),
	)

	win, err := setupflow.New(a.queue, opts...)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	deps := a.controllerDeps()
	deps.Presenter = win
	deps.Picker = win
	deps.Notifier = win
	ctrl := installer.NewController(deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Run(ctx)
		win.Quit()
	}()

	win.Run()
	// The loop can also end without a close request, e.g. when the
	// window is destroyed by the OS.
	a.queue.Send(installer.Intent(installer.EventClose))
	return <-errCh
}

// windowOptions maps the ui section of the configuration to window options.
func windowOptions(ui config.UIConfig) ([]setupflow.Option, error) {
	theme, err := setupflow.ParseThemeMode(ui.Theme)
	if err != nil {
		return nil, err
	}
	opts := []setupflow.Option{
		setupflow.WithTitle(ui.Title),
		setupflow.WithProductName(ui.ProductName),
		setupflow.WithTheme(theme),
		setupflow.WithResizable(ui.Resizable),
		setupflow.WithNativeTitleBar(ui.NativeTitleBar),
		setupflow.WithPrimaryColor(ui.PrimaryColor.Light, ui.PrimaryColor.Dark),
	}
	if ui.Width != "" && ui.Height != "" {
		opts = append(opts, setupflow.WithSize(ui.Width, ui.Height))
	}
	return opts, nil
}

func (a *app) runTUI(ctx context.Context) error {
	prog := tui.New(a.queue,
		tui.WithProductName(a.cfg.UI.ProductName),
		tui.WithLicense(a.license),
		tui.WithAltScreen(true),
	)

	deps := a.controllerDeps()
	deps.Presenter = prog
	deps.Picker = prog
	deps.Notifier = prog
	ctrl := installer.NewController(deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Run(ctx)
		prog.Quit()
	}()

	runErr := prog.Run()
	a.queue.Send(installer.Intent(installer.EventClose))
	if err := <-errCh; err != nil {
		return err
	}
	return runErr
}

func (a *app) runHeadless(ctx context.Context, out io.Writer) error {
	h := newHeadless(out, a.queue)

	deps := a.controllerDeps()
	deps.Presenter = h
	deps.Picker = h
	deps.Notifier = h

	if err := installer.NewController(deps).Run(ctx); err != nil {
		return err
	}
	return h.Err()
}
