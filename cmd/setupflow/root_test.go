package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafted-tech/setupflow"
	"github.com/crafted-tech/setupflow/config"
	"github.com/crafted-tech/setupflow/installer"
)

func executeCommand(args ...string) (string, error) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestRootCmd_Help(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)

	for _, flag := range []string{"--config", "--dest", "--deluxe", "--optional-assets", "--ui", "--log-level", "--log-file"} {
		assert.Contains(t, out, flag)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand("version")
	require.NoError(t, err)
	assert.Equal(t, "setupflow dev (commit: none, built: unknown)\n", out)
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	_, err := executeCommand("extra")
	assert.Error(t, err)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "setupflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: chatty\n"), 0644))

	_, err := executeCommand("--config", path, "--ui", "headless")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "sources.primary.standard.url is required")
	assert.Contains(t, err.Error(), "log.level")
}

func TestSelectUI(t *testing.T) {
	tests := map[string]struct {
		mode string
		env  uiEnv
		want string
	}{
		"explicit mode wins":      {mode: config.UITUI, env: uiEnv{webview: true, display: true}, want: config.UITUI},
		"explicit headless":       {mode: config.UIHeadless, env: uiEnv{terminal: true}, want: config.UIHeadless},
		"auto prefers the window": {mode: config.UIAuto, env: uiEnv{webview: true, display: true, terminal: true}, want: config.UIGUI},
		"no display":              {mode: config.UIAuto, env: uiEnv{webview: true, terminal: true}, want: config.UITUI},
		"empty means auto":        {mode: "", env: uiEnv{terminal: true}, want: config.UITUI},
		"nothing interactive":     {mode: config.UIAuto, env: uiEnv{webview: true}, want: config.UIHeadless},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectUI(tt.mode, tt.env))
		})
	}
}

func TestWindowOptions(t *testing.T) {
	ui := config.UIConfig{
		Title:          "Example Setup",
		ProductName:    "Example Game",
		Theme:          config.ThemeLight,
		Width:          "720px",
		Height:         "540px",
		Resizable:      false,
		NativeTitleBar: true,
		PrimaryColor:   config.PrimaryColor{Light: "142 70% 35%"},
	}

	opts, err := windowOptions(ui)
	require.NoError(t, err)

	var cfg setupflow.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	assert.Equal(t, "Example Setup", cfg.Title)
	assert.Equal(t, "Example Game", cfg.ProductName)
	assert.Equal(t, "720px", cfg.Width)
	assert.Equal(t, "540px", cfg.Height)
	require.NotNil(t, cfg.Theme)
	assert.Equal(t, setupflow.ThemeLight, *cfg.Theme)
	require.NotNil(t, cfg.Resizable)
	assert.False(t, *cfg.Resizable)
	require.NotNil(t, cfg.NativeTitleBar)
	assert.True(t, *cfg.NativeTitleBar)
	assert.Equal(t, "142 70% 35%", cfg.PrimaryColorLight)
	assert.Empty(t, cfg.PrimaryColorDark)

	ui.Theme = "sepia"
	_, err = windowOptions(ui)
	assert.Error(t, err)
}

func recvKind(t *testing.T, q *installer.EventQueue) installer.EventKind {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := q.Recv(ctx)
	require.NoError(t, err)
	return ev.Kind
}

func TestHeadless_StartsOnce(t *testing.T) {
	q := installer.NewEventQueue()
	h := newHeadless(io.Discard, q)

	h.ShowScreen(installer.ScreenWelcome)
	h.ShowScreen(installer.ScreenWelcome)
	q.Send(installer.Intent(installer.EventNextPage))

	assert.Equal(t, installer.EventInstallStart, recvKind(t, q))
	assert.Equal(t, installer.EventNextPage, recvKind(t, q))
}

func TestHeadless_Done(t *testing.T) {
	var out bytes.Buffer
	q := installer.NewEventQueue()
	h := newHeadless(&out, q)

	h.ShowScreen(installer.ScreenWelcome)
	h.SetOptions(installer.Snapshot{Destination: "/games/example"})
	h.ShowScreen(installer.ScreenProgress)
	h.SetStage(installer.StageDownloadingPrimary)
	h.SetProgress(0.5)
	h.ShowScreen(installer.ScreenDone)

	assert.Equal(t, installer.EventInstallStart, recvKind(t, q))
	assert.Equal(t, installer.EventClose, recvKind(t, q))
	assert.NoError(t, h.Err())
	assert.Contains(t, out.String(), "Installing to /games/example")
	assert.Contains(t, out.String(), "Downloading game files")
	assert.Contains(t, out.String(), "Installation complete in less than a second.")
}

func TestHeadless_Aborted(t *testing.T) {
	var out bytes.Buffer
	q := installer.NewEventQueue()
	h := newHeadless(&out, q)

	h.ShowScreen(installer.ScreenAborted)

	assert.Equal(t, installer.EventClose, recvKind(t, q))
	assert.ErrorIs(t, h.Err(), errCancelled)
	assert.Contains(t, out.String(), "Installation cancelled.")
}

func TestHeadless_AlertIsTheError(t *testing.T) {
	var out bytes.Buffer
	h := newHeadless(&out, installer.NewEventQueue())

	h.ShowMessage("folder looks empty")
	h.ShowAlert("Installation failed: checksum mismatch")

	require.Error(t, h.Err())
	assert.Equal(t, "Installation failed: checksum mismatch", h.Err().Error())
	assert.Contains(t, out.String(), "Warning: folder looks empty")
	assert.Contains(t, out.String(), "Error: Installation failed: checksum mismatch")
	assert.Empty(t, h.PickDirectory("Select the installation folder"))
}

func TestElapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "less than a second", elapsed(start, start.Add(300*time.Millisecond)))
	assert.Equal(t, "3 seconds", elapsed(start, start.Add(3*time.Second)))
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestRootCmd_HeadlessInstall(t *testing.T) {
	isolate(t)

	archive := zipBytes(t, map[string]string{
		"game.exe":         "binary",
		"data/levels.pack": "levels",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/game.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "setupflow.yaml")
	cfgYAML := strings.Join([]string{
		"sources:",
		"  primary:",
		"    standard:",
		"      url: " + srv.URL + "/game.zip",
		"install:",
		"  version: 1.2.0",
		"  markers: [game.exe]",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0644))

	dest := t.TempDir()
	logPath := filepath.Join(t.TempDir(), "install.log")

	out, err := executeCommand("--config", cfgPath, "--ui", "headless", "--dest", dest, "--log-file", logPath)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Installing to "+dest)
	assert.Contains(t, out, "Installation complete")
	assert.FileExists(t, filepath.Join(dest, "game.exe"))
	assert.FileExists(t, filepath.Join(dest, "data", "levels.pack"))
	assert.Equal(t, "1.2.0", installer.ReadVersionFile(dest))

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "ui=headless")
}

func TestRootCmd_HeadlessDownloadFailure(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "setupflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sources:\n  primary:\n    standard:\n      url: "+srv.URL+"/game.zip\n"), 0644))

	dest := t.TempDir()
	out, err := executeCommand("--config", cfgPath, "--ui", "headless", "--dest", dest, "--log-file", filepath.Join(t.TempDir(), "install.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Installation failed")
	assert.Contains(t, out, "Error: ")
	assert.NoFileExists(t, filepath.Join(dest, "game.exe"))
}
