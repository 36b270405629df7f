package setupflow

import (
	"encoding/json"
	"sync"

	"github.com/crafted-tech/webframe"
	"github.com/crafted-tech/webframe/types"

	"github.com/crafted-tech/setupflow/installer"
)

// Title bar colors used after Shift+F5 forces the other theme.
var (
	darkFrameColorFallback          = types.RGBA{R: 0x1C, G: 0x1F, B: 0x26, A: 0xFF}
	lightFrameColorFallback         = types.RGBA{R: 0xF4, G: 0xF5, B: 0xF7, A: 0xFF}
	darkBackdropFrameColorFallback  = types.RGBA{R: 0x18, G: 0x1A, B: 0x20, A: 0xFF}
	lightBackdropFrameColorFallback = types.RGBA{R: 0xE8, G: 0xE9, B: 0xEB, A: 0xFF}
)

// folderDialogTitle is the title of the native folder picker.
const folderDialogTitle = "Select the installation folder"

// viewState is everything the page needs to draw the current screen. It is
// pushed to runtime.js as a whole on every change and again on page_ready.
type viewState struct {
	Screen      string  `json:"screen"`
	Stage       string  `json:"stage"`
	Progress    float64 `json:"progress"`
	Destination string  `json:"destination"`
	Deluxe      bool    `json:"deluxe"`
	Optional    bool    `json:"optional"`
	Muted       bool    `json:"muted"`
}

// Window is the desktop presenter. It renders the wizard in a webview and
// turns clicks into events on the installer queue.
//
// Presenter, DirectoryPicker and Notifier methods are called from the
// controller goroutine while Run owns the UI thread.
type Window struct {
	wv     types.WebFrame
	config Config
	queue  *installer.EventQueue
	log    *installer.Logger

	mu       sync.Mutex
	view     viewState
	darkMode bool

	picked    chan string
	alertAck  chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

var (
	_ installer.Presenter       = (*Window)(nil)
	_ installer.DirectoryPicker = (*Window)(nil)
	_ installer.Notifier        = (*Window)(nil)
)

// New creates the installer window. Intents from the page are sent to queue.
func New(queue *installer.EventQueue, opts ...Option) (*Window, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Window{
		config:   cfg,
		queue:    queue,
		log:      cfg.Logger,
		view:     viewState{Screen: screenID(installer.ScreenWelcome)},
		picked:   make(chan string, 1),
		alertAck: make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}

	resizable := cfg.Resizable == nil || *cfg.Resizable
	nativeTitleBar := cfg.NativeTitleBar != nil && *cfg.NativeTitleBar
	wv, err := webframe.New(types.Config{
		Title:          cfg.Title,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Resizable:      resizable,
		NativeTitleBar: nativeTitleBar,
		StartHidden:    true,
		OnClose:        w.onClose,
	})
	if err != nil {
		return nil, err
	}
	w.wv = wv

	switch {
	case cfg.Theme == nil, *cfg.Theme == ThemeSystem:
		w.darkMode = wv.IsDarkMode()
		w.log.Debug("Theme: system, dark=%t", w.darkMode)
	case *cfg.Theme == ThemeDark:
		w.darkMode = true
	case *cfg.Theme == ThemeLight:
		w.darkMode = false
	}

	wv.SetFrameAppearance(types.FrameAppearance{
		TitleBar:         wv.GetHeaderBarColor(),
		BackdropTitleBar: wv.GetBackdropHeaderBarColor(),
	})

	if cfg.Theme == nil || *cfg.Theme == ThemeSystem {
		wv.OnThemeChange(w.onThemeChange)
	}

	wv.AddMessageHandler(w.handleMessage)

	wv.LoadHTML(renderWizard(cfg, w.darkMode))
	wv.Show()

	return w, nil
}

// Run starts the UI event loop and blocks until Quit is called. It must run
// on the main thread.
func (w *Window) Run() {
	w.wv.Run()
}

// Quit stops the event loop and releases any blocked ShowAlert call.
func (w *Window) Quit() {
	w.markClosed()
	w.wv.Quit()
}

// Close releases the window's resources.
func (w *Window) Close() {
	if w.wv != nil {
		w.wv.Destroy()
	}
}

// ShowScreen implements installer.Presenter.
func (w *Window) ShowScreen(s installer.Screen) {
	w.update(func(v *viewState) {
		v.Screen = screenID(s)
	})
}

// SetStage implements installer.Presenter.
func (w *Window) SetStage(stage installer.StageID) {
	w.update(func(v *viewState) {
		v.Stage = stage.Description()
	})
}

// SetProgress implements installer.Presenter.
func (w *Window) SetProgress(fraction float64) {
	w.update(func(v *viewState) {
		v.Progress = fraction
	})
}

// SetOptions implements installer.Presenter.
func (w *Window) SetOptions(snap installer.Snapshot) {
	w.update(func(v *viewState) {
		v.Destination = snap.Destination
		v.Deluxe = snap.Deluxe
		v.Optional = snap.IncludeOptionalAssets
		v.Muted = snap.Volume == 0
	})
}

// PickDirectory implements installer.DirectoryPicker. The dialog itself was
// already shown on the UI thread when the browse intent arrived; this
// returns its result, or "" if there is none.
func (w *Window) PickDirectory(string) string {
	select {
	case path := <-w.picked:
		return path
	default:
		return ""
	}
}

// ShowAlert implements installer.Notifier. It blocks until the user
// dismisses the alert or the window goes away.
func (w *Window) ShowAlert(text string) {
	select {
	case <-w.alertAck:
	default:
	}

	w.eval(`window.setupflow.alert(` + jsonString(text) + `);`)

	select {
	case <-w.alertAck:
	case <-w.closed:
	}
}

// ShowMessage implements installer.Notifier.
func (w *Window) ShowMessage(text string) {
	w.eval(`window.setupflow.toast(` + jsonString(text) + `);`)
}

func (w *Window) update(fn func(v *viewState)) {
	w.mu.Lock()
	fn(&w.view)
	w.mu.Unlock()
	w.sync()
}

// sync pushes the whole view state to the page.
func (w *Window) sync() {
	w.mu.Lock()
	data, err := json.Marshal(w.view)
	w.mu.Unlock()
	if err != nil {
		w.log.Error("Failed to encode view state: %v", err)
		return
	}
	w.eval(`window.setupflow && window.setupflow.render(` + string(data) + `);`)
}

func (w *Window) handleMessage(raw string) {
	msg, err := parseMessage(raw)
	if err != nil {
		w.log.Warn("Ignoring page message: %v", err)
		return
	}

	switch msg.Type {
	case msgPageReady:
		if focuser, ok := w.wv.(webviewFocuser); ok {
			focuser.FocusWebView()
		}
		w.sync()
	case msgToggleTheme:
		w.toggleTheme()
	case msgAlertAck:
		select {
		case w.alertAck <- struct{}{}:
		default:
		}
	case msgIntent:
		ev, ok := intentEvent(msg.Intent)
		if !ok {
			w.log.Warn("Unknown intent %q", msg.Intent)
			return
		}
		if msg.Intent == intentBrowse {
			w.browse()
		}
		w.queue.Send(ev)
	default:
		w.log.Warn("Unknown page message type %q", msg.Type)
	}
}

// browse shows the folder dialog and stores its result for PickDirectory.
func (w *Window) browse() {
	path, ok := pickFolder(w.wv, folderDialogTitle)
	if !ok {
		path = ""
	}
	select {
	case <-w.picked:
	default:
	}
	w.picked <- path
}

func (w *Window) onClose() {
	w.markClosed()
	w.queue.Send(installer.Intent(installer.EventClose))
}

func (w *Window) markClosed() {
	w.closeOnce.Do(func() { close(w.closed) })
}

func (w *Window) onThemeChange(isDark bool) {
	w.mu.Lock()
	w.darkMode = isDark
	w.mu.Unlock()
	w.log.Debug("OS theme changed: dark=%t", isDark)

	w.wv.SetFrameAppearance(types.FrameAppearance{
		TitleBar:         w.wv.GetHeaderBarColor(),
		BackdropTitleBar: w.wv.GetBackdropHeaderBarColor(),
	})
	w.applyTheme(isDark)
}

func (w *Window) toggleTheme() {
	w.mu.Lock()
	w.darkMode = !w.darkMode
	dark := w.darkMode
	w.mu.Unlock()

	w.applyTheme(dark)

	// A forced theme has no system color to query.
	if dark {
		w.wv.SetFrameAppearance(types.FrameAppearance{
			TitleBar:         darkFrameColorFallback,
			BackdropTitleBar: darkBackdropFrameColorFallback,
		})
	} else {
		w.wv.SetFrameAppearance(types.FrameAppearance{
			TitleBar:         lightFrameColorFallback,
			BackdropTitleBar: lightBackdropFrameColorFallback,
		})
	}
}

func (w *Window) applyTheme(dark bool) {
	theme := "light"
	if dark {
		theme = "dark"
	}
	w.eval(`document.documentElement.setAttribute('data-theme', ` + jsonString(theme) + `);`)
}

// eval runs script in the page without blocking the caller where the
// webview supports it.
func (w *Window) eval(script string) {
	if async, ok := w.wv.(asyncScriptEvaluator); ok {
		async.EvaluateScriptAsync(script)
	} else {
		w.wv.EvaluateScript(script)
	}
}

// asyncScriptEvaluator is implemented by webviews that can queue a script
// from a goroutine other than the UI thread.
type asyncScriptEvaluator interface {
	EvaluateScriptAsync(script string)
}

// webviewFocuser moves keyboard focus into the page.
type webviewFocuser interface {
	FocusWebView()
}

// folderBrowser is the folder dialog of webviews without types.Dialogs.
type folderBrowser interface {
	BrowseFolder(title string) string
}

// pickFolder shows the native folder dialog. ok is false when the user
// cancelled or the webview has no dialog support.
func pickFolder(wv types.WebFrame, title string) (string, bool) {
	if d, ok := wv.(types.Dialogs); ok {
		return d.PickFolder(types.WithTitle(title))
	}
	if b, ok := wv.(folderBrowser); ok {
		path := b.BrowseFolder(title)
		return path, path != ""
	}
	return "", false
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
