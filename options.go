package setupflow

import (
	"fmt"
	"strings"

	"github.com/crafted-tech/setupflow/installer"
)

// ThemeMode specifies the color theme for the window.
type ThemeMode int

const (
	ThemeSystem ThemeMode = iota // Auto-detect from OS (default)
	ThemeDark                    // Force dark mode
	ThemeLight                   // Force light mode
)

// ParseThemeMode maps "system", "dark" or "light" to a ThemeMode. An empty
// name is system.
func ParseThemeMode(name string) (ThemeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "system":
		return ThemeSystem, nil
	case "dark":
		return ThemeDark, nil
	case "light":
		return ThemeLight, nil
	}
	return ThemeSystem, fmt.Errorf("unknown theme %q", name)
}

// Config holds the configuration for creating a new Window.
type Config struct {
	Title             string     // Window title
	ProductName       string     // Name shown on the welcome and done screens
	LicenseText       string     // Text of the license screen
	Width             string     // Window width spec: "40em", "600", "80%" (default: "40em")
	Height            string     // Window height spec: "30em", "450", "70%" (default: "32em")
	Resizable         *bool      // nil or true = resizable, false = fixed size
	Theme             *ThemeMode // nil = system (auto-detect)
	NativeTitleBar    *bool      // nil or false = stylable titlebar, true = native system titlebar
	PrimaryColorLight string     // HSL values for light mode, e.g., "142 70% 35%"
	PrimaryColorDark  string     // HSL values for dark mode, e.g., "142 70% 50%"
	Logger            *installer.Logger
}

// Option is a function that configures a Window.
type Option func(*Config)

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithProductName sets the product name used in screen headings.
func WithProductName(name string) Option {
	return func(c *Config) {
		c.ProductName = name
	}
}

// WithLicense sets the text shown on the license screen.
func WithLicense(text string) Option {
	return func(c *Config) {
		c.LicenseText = text
	}
}

// WithSize sets the window dimensions.
// Accepts dimension specs like "40em", "600", "600px", or "80%".
func WithSize(width, height string) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithResizable sets whether the window can be resized.
// If not called, the window is resizable by default.
func WithResizable(resizable bool) Option {
	return func(c *Config) {
		c.Resizable = &resizable
	}
}

// WithTheme sets the color theme mode.
func WithTheme(mode ThemeMode) Option {
	return func(c *Config) {
		c.Theme = &mode
	}
}

// WithNativeTitleBar uses the native system titlebar instead of the stylable one.
// Only affects Linux (GTK3/GTK4). Ignored on Windows/macOS.
func WithNativeTitleBar(native bool) Option {
	return func(c *Config) {
		c.NativeTitleBar = &native
	}
}

// WithPrimaryColor sets custom primary color for light and dark modes.
// Colors are HSL values without the hsl() wrapper, e.g., "200 70% 50%".
func WithPrimaryColor(light, dark string) Option {
	return func(c *Config) {
		c.PrimaryColorLight = light
		c.PrimaryColorDark = dark
	}
}

// WithLogger sets the logger used for window events.
func WithLogger(log *installer.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func defaultConfig() Config {
	return Config{
		Title:       "Setup",
		ProductName: "the game",
		Width:       "40em",
		Height:      "32em",
	}
}
