// Package config loads setupflow's process configuration from defaults, an
// optional config file, SETUPFLOW_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/crafted-tech/setupflow/installer"
	"github.com/crafted-tech/setupflow/platform"
)

// AppName names the config file, the env prefix and the per-user directories.
const AppName = "setupflow"

// UI modes.
const (
	UIAuto     = "auto"
	UIGUI      = "gui"
	UITUI      = "tui"
	UIHeadless = "headless"
)

// Window themes.
const (
	ThemeSystem = "system"
	ThemeDark   = "dark"
	ThemeLight  = "light"
)

type Source struct {
	URL    string `mapstructure:"url"`
	SHA256 string `mapstructure:"sha256"`
}

type PrimarySources struct {
	Standard Source `mapstructure:"standard"`
	Deluxe   Source `mapstructure:"deluxe"`
}

type SourcesConfig struct {
	Primary  PrimarySources `mapstructure:"primary"`
	Optional Source         `mapstructure:"optional"`
}

type InstallConfig struct {
	Version        string   `mapstructure:"version"`
	Markers        []string `mapstructure:"markers"`
	Destination    string   `mapstructure:"destination"`
	Deluxe         bool     `mapstructure:"deluxe"`
	OptionalAssets bool     `mapstructure:"optional_assets"`
}

type LinksConfig struct {
	Credits   string `mapstructure:"credits"`
	Changelog string `mapstructure:"changelog"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// PrimaryColor holds HSL triplets such as "142 70% 35%" for each theme.
type PrimaryColor struct {
	Light string `mapstructure:"light"`
	Dark  string `mapstructure:"dark"`
}

type UIConfig struct {
	Mode        string `mapstructure:"mode"`
	Title       string `mapstructure:"title"`
	ProductName string `mapstructure:"product_name"`
	LicenseFile string `mapstructure:"license_file"`

	// Window settings, used by the gui front end only.
	Theme          string       `mapstructure:"theme"`
	Width          string       `mapstructure:"width"`
	Height         string       `mapstructure:"height"`
	Resizable      bool         `mapstructure:"resizable"`
	NativeTitleBar bool         `mapstructure:"native_title_bar"`
	PrimaryColor   PrimaryColor `mapstructure:"primary_color"`
}

// Config is the complete process configuration.
type Config struct {
	Sources SourcesConfig `mapstructure:"sources"`
	Install InstallConfig `mapstructure:"install"`
	Links   LinksConfig   `mapstructure:"links"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	UI      UIConfig      `mapstructure:"ui"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"dest":            "install.destination",
	"deluxe":          "install.deluxe",
	"optional-assets": "install.optional_assets",
	"ui":              "ui.mode",
	"log-level":       "log.level",
	"log-file":        "log.file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.primary.standard.url", "")
	v.SetDefault("sources.primary.standard.sha256", "")
	v.SetDefault("sources.primary.deluxe.url", "")
	v.SetDefault("sources.primary.deluxe.sha256", "")
	v.SetDefault("sources.optional.url", "")
	v.SetDefault("sources.optional.sha256", "")
	v.SetDefault("install.version", "")
	v.SetDefault("install.markers", []string{})
	v.SetDefault("install.destination", "")
	v.SetDefault("install.deluxe", false)
	v.SetDefault("install.optional_assets", false)
	v.SetDefault("links.credits", "")
	v.SetDefault("links.changelog", "")
	v.SetDefault("http.timeout", installer.DefaultHTTPTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.mode", UIAuto)
	v.SetDefault("ui.title", "Setup")
	v.SetDefault("ui.product_name", "the game")
	v.SetDefault("ui.license_file", "")
	v.SetDefault("ui.theme", ThemeSystem)
	v.SetDefault("ui.width", "40em")
	v.SetDefault("ui.height", "32em")
	v.SetDefault("ui.resizable", true)
	v.SetDefault("ui.native_title_bar", false)
	v.SetDefault("ui.primary_color.light", "")
	v.SetDefault("ui.primary_color.dark", "")
}

// Load reads the configuration. cfgFile may be empty, in which case
// setupflow.{yaml,toml,json} is searched for in the working directory and
// the user config directory; a missing file is not an error. flags may be
// nil.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		if dir, err := platform.UserConfigPath(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		log.Debugf("using config file %s", v.ConfigFileUsed())
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

var uiModes = map[string]bool{
	UIAuto:     true,
	UIGUI:      true,
	UITUI:      true,
	UIHeadless: true,
}

var themes = map[string]bool{
	ThemeSystem: true,
	ThemeDark:   true,
	ThemeLight:  true,
}

// hslPattern matches the "H S% L%" triplet the window stylesheet expects.
var hslPattern = regexp.MustCompile(`^\d{1,3}(\.\d+)? \d{1,3}(\.\d+)?% \d{1,3}(\.\d+)?%$`)

// sizePattern matches window dimensions such as "40em", "600", "600px" or "80%".
var sizePattern = regexp.MustCompile(`^\d+(\.\d+)?(em|px|%)?$`)

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Sources.Primary.Standard.URL == "" {
		result = multierror.Append(result, errors.New("sources.primary.standard.url is required"))
	}
	result = validateSource(result, "sources.primary.standard", c.Sources.Primary.Standard)
	result = validateSource(result, "sources.primary.deluxe", c.Sources.Primary.Deluxe)
	result = validateSource(result, "sources.optional", c.Sources.Optional)

	if c.Install.Deluxe && c.Sources.Primary.Deluxe.URL == "" {
		result = multierror.Append(result, errors.New("install.deluxe is set but sources.primary.deluxe.url is empty"))
	}
	if c.Install.OptionalAssets && c.Sources.Optional.URL == "" {
		result = multierror.Append(result, errors.New("install.optional_assets is set but sources.optional.url is empty"))
	}

	for _, link := range []struct{ key, value string }{
		{"links.credits", c.Links.Credits},
		{"links.changelog", c.Links.Changelog},
	} {
		if link.value != "" {
			if err := checkURL(link.value); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", link.key, err))
			}
		}
	}

	if c.HTTP.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("http.timeout %s is negative", c.HTTP.Timeout))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}
	if !uiModes[c.UI.Mode] {
		result = multierror.Append(result, fmt.Errorf("ui.mode %q is not one of auto, gui, tui, headless", c.UI.Mode))
	}
	if c.UI.Theme != "" && !themes[c.UI.Theme] {
		result = multierror.Append(result, fmt.Errorf("ui.theme %q is not one of system, dark, light", c.UI.Theme))
	}
	for _, dim := range []struct{ key, value string }{
		{"ui.width", c.UI.Width},
		{"ui.height", c.UI.Height},
	} {
		if dim.value != "" && !sizePattern.MatchString(dim.value) {
			result = multierror.Append(result, fmt.Errorf("%s %q is not a size like 40em, 600px or 80%%", dim.key, dim.value))
		}
	}
	for _, color := range []struct{ key, value string }{
		{"ui.primary_color.light", c.UI.PrimaryColor.Light},
		{"ui.primary_color.dark", c.UI.PrimaryColor.Dark},
	} {
		if color.value != "" && !hslPattern.MatchString(color.value) {
			result = multierror.Append(result, fmt.Errorf("%s %q is not an HSL triplet like \"142 70%% 35%%\"", color.key, color.value))
		}
	}

	return result.ErrorOrNil()
}

func validateSource(result *multierror.Error, key string, src Source) *multierror.Error {
	if src.URL != "" {
		if err := checkURL(src.URL); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s.url: %w", key, err))
		}
	}
	if src.SHA256 != "" && !sha256Pattern.MatchString(strings.TrimSpace(src.SHA256)) {
		result = multierror.Append(result, fmt.Errorf("%s.sha256 is not a hex SHA-256 digest", key))
	}
	return result
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q is not a valid URL: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// ArchiveSources converts the configured archive sources for the pipeline.
func (c Config) ArchiveSources() installer.Sources {
	return installer.Sources{
		Standard: installer.Source(c.Sources.Primary.Standard),
		Deluxe:   installer.Source(c.Sources.Primary.Deluxe),
		Optional: installer.Source(c.Sources.Optional),
	}
}

// LinkURLs returns the configured link targets keyed by link kind.
func (c Config) LinkURLs() map[installer.LinkKind]string {
	return map[installer.LinkKind]string{
		installer.LinkCredits:   c.Links.Credits,
		installer.LinkChangelog: c.Links.Changelog,
	}
}
