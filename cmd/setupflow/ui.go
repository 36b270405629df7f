package main

import (
	"os"
	"runtime"

	"golang.org/x/term"

	"github.com/crafted-tech/setupflow"
	"github.com/crafted-tech/setupflow/config"
)

// uiEnv describes which front ends can run in this process.
type uiEnv struct {
	webview  bool
	display  bool
	terminal bool
}

func detectUI() uiEnv {
	return uiEnv{
		webview:  setupflow.CheckWebView2().Installed,
		display:  hasDisplay(),
		terminal: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func hasDisplay() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// selectUI resolves the configured mode. An explicit mode is always honored;
// auto prefers the window, then the terminal wizard, then headless.
func selectUI(mode string, env uiEnv) string {
	if mode != "" && mode != config.UIAuto {
		return mode
	}
	switch {
	case env.webview && env.display:
		return config.UIGUI
	case env.terminal:
		return config.UITUI
	default:
		return config.UIHeadless
	}
}
