package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafted-tech/setupflow/installer"
)

const sampleYAML = `
sources:
  primary:
    standard:
      url: https://cdn.example.com/game.zip
      sha256: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
    deluxe:
      url: https://cdn.example.com/game-deluxe.zip
  optional:
    url: https://cdn.example.com/music.tar.zst
install:
  version: 1.4.0
  markers: [game.exe, data]
  destination: /games/example
links:
  credits: https://example.com/credits
  changelog: https://example.com/changelog
http:
  timeout: 45s
ui:
  mode: tui
  product_name: Example Game
  theme: dark
  width: 720px
  height: 540px
  resizable: false
  primary_color:
    light: 142 70% 35%
`

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("setupflow", pflag.ContinueOnError)
	flags.String("dest", "", "")
	flags.Bool("deluxe", false, "")
	flags.Bool("optional-assets", false, "")
	flags.String("ui", "", "")
	flags.String("log-level", "", "")
	flags.String("log-file", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, UIAuto, cfg.UI.Mode)
	assert.Equal(t, "Setup", cfg.UI.Title)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, installer.DefaultHTTPTimeout, cfg.HTTP.Timeout)
	assert.Empty(t, cfg.Sources.Primary.Standard.URL)
	assert.False(t, cfg.Install.Deluxe)
	assert.Equal(t, ThemeSystem, cfg.UI.Theme)
	assert.Equal(t, "40em", cfg.UI.Width)
	assert.Equal(t, "32em", cfg.UI.Height)
	assert.True(t, cfg.UI.Resizable)
	assert.False(t, cfg.UI.NativeTitleBar)
	assert.Empty(t, cfg.UI.PrimaryColor.Light)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "setupflow.yaml", sampleYAML)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/game.zip", cfg.Sources.Primary.Standard.URL)
	assert.Len(t, cfg.Sources.Primary.Standard.SHA256, 64)
	assert.Equal(t, "https://cdn.example.com/music.tar.zst", cfg.Sources.Optional.URL)
	assert.Equal(t, []string{"game.exe", "data"}, cfg.Install.Markers)
	assert.Equal(t, "1.4.0", cfg.Install.Version)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, UITUI, cfg.UI.Mode)
	assert.Equal(t, "Example Game", cfg.UI.ProductName)
	assert.Equal(t, ThemeDark, cfg.UI.Theme)
	assert.Equal(t, "720px", cfg.UI.Width)
	assert.Equal(t, "540px", cfg.UI.Height)
	assert.False(t, cfg.UI.Resizable)
	assert.Equal(t, PrimaryColor{Light: "142 70% 35%"}, cfg.UI.PrimaryColor)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("setupflow.toml", []byte("[ui]\nmode = \"headless\"\n"), 0644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, UIHeadless, cfg.UI.Mode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "setupflow.yaml", sampleYAML)
	t.Setenv("SETUPFLOW_UI_MODE", "gui")
	t.Setenv("SETUPFLOW_INSTALL_DELUXE", "true")
	t.Setenv("SETUPFLOW_LOG_LEVEL", "debug")
	t.Setenv("SETUPFLOW_UI_PRIMARY_COLOR_DARK", "142 70% 50%")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, UIGUI, cfg.UI.Mode)
	assert.True(t, cfg.Install.Deluxe)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "142 70% 50%", cfg.UI.PrimaryColor.Dark)
	assert.Equal(t, "142 70% 35%", cfg.UI.PrimaryColor.Light)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "setupflow.yaml", sampleYAML)
	t.Setenv("SETUPFLOW_UI_MODE", "gui")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--dest", "/opt/example", "--ui", "headless", "--optional-assets"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "/opt/example", cfg.Install.Destination)
	assert.Equal(t, UIHeadless, cfg.UI.Mode)
	assert.True(t, cfg.Install.OptionalAssets)
	// Unset flags leave lower layers alone.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Install.Deluxe)
}

func TestLoad_BrokenFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "setupflow.yaml", "sources: [unterminated")

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Sources: SourcesConfig{
			Primary: PrimarySources{Standard: Source{URL: "https://cdn.example.com/game.zip"}},
		},
		HTTP: HTTPConfig{Timeout: time.Minute},
		Log:  LogConfig{Level: "info"},
		UI:   UIConfig{Mode: UIAuto},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"missing standard url": {
			mutate: func(c *Config) { c.Sources.Primary.Standard.URL = "" },
			want:   "sources.primary.standard.url is required",
		},
		"bad scheme": {
			mutate: func(c *Config) { c.Sources.Optional.URL = "ftp://cdn.example.com/music.zip" },
			want:   "sources.optional.url",
		},
		"bad digest": {
			mutate: func(c *Config) { c.Sources.Primary.Standard.SHA256 = "abc" },
			want:   "sources.primary.standard.sha256",
		},
		"deluxe without source": {
			mutate: func(c *Config) { c.Install.Deluxe = true },
			want:   "install.deluxe",
		},
		"optional without source": {
			mutate: func(c *Config) { c.Install.OptionalAssets = true },
			want:   "install.optional_assets",
		},
		"bad link": {
			mutate: func(c *Config) { c.Links.Credits = "credits.html" },
			want:   "links.credits",
		},
		"negative timeout": {
			mutate: func(c *Config) { c.HTTP.Timeout = -time.Second },
			want:   "http.timeout",
		},
		"bad level": {
			mutate: func(c *Config) { c.Log.Level = "chatty" },
			want:   "log.level",
		},
		"bad ui": {
			mutate: func(c *Config) { c.UI.Mode = "vr" },
			want:   "ui.mode",
		},
		"bad theme": {
			mutate: func(c *Config) { c.UI.Theme = "sepia" },
			want:   "ui.theme",
		},
		"bad width": {
			mutate: func(c *Config) { c.UI.Width = "wide" },
			want:   "ui.width",
		},
		"bad primary color": {
			mutate: func(c *Config) { c.UI.PrimaryColor.Dark = "red; } body { display: none" },
			want:   "ui.primary_color.dark",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "chatty"
	cfg.UI.Mode = "vr"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "ui.mode")
}

func TestArchiveSourcesAndLinks(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Primary.Deluxe = Source{URL: "https://cdn.example.com/deluxe.zip", SHA256: "ff"}
	cfg.Links.Changelog = "https://example.com/changelog"

	sources := cfg.ArchiveSources()
	assert.Equal(t, "https://cdn.example.com/game.zip", sources.Primary(false).URL)
	assert.Equal(t, installer.Source{URL: "https://cdn.example.com/deluxe.zip", SHA256: "ff"}, sources.Primary(true))

	links := cfg.LinkURLs()
	assert.Equal(t, "https://example.com/changelog", links[installer.LinkChangelog])
	assert.Empty(t, links[installer.LinkCredits])
}
