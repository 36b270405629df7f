// Package tui is the terminal presenter for setupflow, built on bubbletea.
package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crafted-tech/setupflow/installer"
)

// Config holds the terminal presenter configuration.
type Config struct {
	ProductName string
	LicenseText string
	AltScreen   bool
	Input       io.Reader
	Output      io.Writer
}

// Option configures the terminal presenter.
type Option func(*Config)

// WithProductName sets the product name shown in headings.
func WithProductName(name string) Option {
	return func(c *Config) {
		c.ProductName = name
	}
}

// WithLicense sets the license screen text.
func WithLicense(text string) Option {
	return func(c *Config) {
		c.LicenseText = text
	}
}

// WithAltScreen runs the program in the terminal's alternate screen.
func WithAltScreen(on bool) Option {
	return func(c *Config) {
		c.AltScreen = on
	}
}

// WithIO overrides the terminal input and output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Config) {
		c.Input = in
		c.Output = out
	}
}

// Program runs the wizard in the terminal. Presenter, DirectoryPicker and
// Notifier methods may be called from any goroutine while Run is active.
type Program struct {
	program *tea.Program
	picked  chan string
	acks    chan struct{}
	done    chan struct{}
}

var (
	_ installer.Presenter       = (*Program)(nil)
	_ installer.DirectoryPicker = (*Program)(nil)
	_ installer.Notifier        = (*Program)(nil)
)

// New creates the terminal presenter. Key presses are sent to queue as
// intents.
func New(queue *installer.EventQueue, opts ...Option) *Program {
	cfg := Config{ProductName: "the game", AltScreen: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Program{
		picked: make(chan string, 1),
		acks:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	var teaOpts []tea.ProgramOption
	if cfg.AltScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}
	if cfg.Input != nil {
		teaOpts = append(teaOpts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		teaOpts = append(teaOpts, tea.WithOutput(cfg.Output))
	}
	// ctrl+c is an intent, not a kill switch.
	teaOpts = append(teaOpts, tea.WithoutSignalHandler())

	p.program = tea.NewProgram(newModel(cfg, queue.Send, p.picked, p.acks), teaOpts...)
	return p
}

// Run blocks until Quit is called or the program fails.
func (p *Program) Run() error {
	defer close(p.done)
	_, err := p.program.Run()
	return err
}

// Quit stops the program.
func (p *Program) Quit() {
	p.program.Quit()
}

// ShowScreen implements installer.Presenter.
func (p *Program) ShowScreen(s installer.Screen) { p.program.Send(screenMsg(s)) }

// SetStage implements installer.Presenter.
func (p *Program) SetStage(s installer.StageID) { p.program.Send(stageMsg(s)) }

// SetProgress implements installer.Presenter.
func (p *Program) SetProgress(f float64) { p.program.Send(progressMsg(f)) }

// SetOptions implements installer.Presenter.
func (p *Program) SetOptions(snap installer.Snapshot) { p.program.Send(optionsMsg(snap)) }

// ShowMessage implements installer.Notifier.
func (p *Program) ShowMessage(text string) { p.program.Send(toastMsg(text)) }

// ShowAlert implements installer.Notifier. It blocks until the alert is
// acknowledged or the program exits.
func (p *Program) ShowAlert(text string) {
	p.program.Send(alertMsg(text))
	select {
	case <-p.acks:
	case <-p.done:
	}
}

// PickDirectory implements installer.DirectoryPicker with an inline text
// prompt. It returns "" if the prompt was cancelled or the program exited.
func (p *Program) PickDirectory(prompt string) string {
	p.program.Send(promptMsg(prompt))
	select {
	case path := <-p.picked:
		return path
	case <-p.done:
		return ""
	}
}
