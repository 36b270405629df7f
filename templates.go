package setupflow

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/crafted-tech/setupflow/installer"
)

// screenIDs are the DOM ids of the screen sections. runtime.js shows the
// section whose id matches viewState.Screen.
var screenIDs = map[installer.Screen]string{
	installer.ScreenWelcome:         "welcome",
	installer.ScreenLicense:         "license",
	installer.ScreenSelectDirectory: "directory",
	installer.ScreenOptions:         "options",
	installer.ScreenProgress:        "progress",
	installer.ScreenAborted:         "aborted",
	installer.ScreenDone:            "done",
}

func screenID(s installer.Screen) string {
	if id, ok := screenIDs[s]; ok {
		return id
	}
	return screenIDs[installer.ScreenWelcome]
}

type buttonStyle int

const (
	buttonDefault buttonStyle = iota
	buttonPrimary
	buttonDanger
	buttonLink
)

// button is a footer or inline button that sends an intent when clicked.
type button struct {
	Label  string
	Intent string
	Style  buttonStyle
}

// screen is one section of the wizard page.
type screen struct {
	ID       string
	Title    string
	Subtitle string
	Body     string
	Buttons  []button
}

// renderWizard generates the complete HTML for the wizard. All screens are
// rendered up front and runtime.js switches between them.
func renderWizard(cfg Config, darkMode bool) string {
	var buf bytes.Buffer

	theme := "light"
	if darkMode {
		theme = "dark"
	}

	buf.WriteString(`<!DOCTYPE html>
<html lang="en" data-theme="` + theme + `">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + html.EscapeString(cfg.Title) + `</title>
    <style>` + pageCSS(cfg.PrimaryColorLight, cfg.PrimaryColorDark) + `</style>
</head>
<body>
    <div class="flow-container">
`)

	for _, s := range wizardScreens(cfg) {
		buf.WriteString(renderScreen(s))
	}

	buf.WriteString(`        <div class="alert-backdrop" id="alert" hidden>
            <div class="alert-box" role="alertdialog">
                <p class="alert-text" id="alert-text"></p>
                <div class="flow-footer">
                    <div class="button-spacer"></div>
                    <button type="button" class="btn btn-primary" data-ack="alert">OK</button>
                </div>
            </div>
        </div>
        <div class="toast" id="toast" hidden></div>
    </div>
    <script>` + jsContent + `</script>
</body>
</html>`)

	return buf.String()
}

// pageCSS returns the stylesheet with optional primary color overrides.
func pageCSS(primaryLight, primaryDark string) string {
	css := cssContent
	if primaryLight == "" && primaryDark == "" {
		return css
	}

	var colorCSS strings.Builder
	if primaryLight != "" {
		colorCSS.WriteString("\n:root {")
		colorCSS.WriteString("\n    --primary: " + primaryLight + ";")
		colorCSS.WriteString("\n    --ring: " + primaryLight + ";")
		colorCSS.WriteString("\n}")
	}
	if primaryDark != "" {
		colorCSS.WriteString("\n[data-theme=\"dark\"] {")
		colorCSS.WriteString("\n    --primary: " + primaryDark + ";")
		colorCSS.WriteString("\n    --ring: " + primaryDark + ";")
		colorCSS.WriteString("\n}")
	}
	return css + colorCSS.String()
}

func wizardScreens(cfg Config) []screen {
	product := html.EscapeString(cfg.ProductName)
	return []screen{
		{
			ID:       screenID(installer.ScreenWelcome),
			Title:    "Welcome",
			Subtitle: "This wizard installs " + cfg.ProductName + " on your computer.",
			Body: `            <p class="flow-message">Click Next to continue, or Close to exit setup.</p>
            <div class="link-row">
` + renderButton(button{Label: "Credits", Intent: "link_credits", Style: buttonLink}) +
				renderButton(button{Label: "Changelog", Intent: "link_changelog", Style: buttonLink}) + `            </div>
`,
			Buttons: []button{
				{Label: "Close", Intent: "close"},
				{Label: "Next", Intent: "next", Style: buttonPrimary},
			},
		},
		{
			ID:       screenID(installer.ScreenLicense),
			Title:    "License Agreement",
			Subtitle: "Please read the following license before continuing.",
			Body:     renderLicense(cfg.LicenseText),
			Buttons: []button{
				{Label: "Back", Intent: "back"},
				{Label: "I Agree", Intent: "next", Style: buttonPrimary},
			},
		},
		{
			ID:       screenID(installer.ScreenSelectDirectory),
			Title:    "Installation Folder",
			Subtitle: "Choose the folder " + cfg.ProductName + " will be installed into.",
			Body: `            <div class="path-row">
                <code class="path-value" data-bind="destination"></code>
` + renderButton(button{Label: "Browse...", Intent: "browse"}) + `            </div>
`,
			Buttons: []button{
				{Label: "Back", Intent: "back"},
				{Label: "Next", Intent: "next", Style: buttonPrimary},
			},
		},
		{
			ID:       screenID(installer.ScreenOptions),
			Title:    "Options",
			Subtitle: "Select what to install.",
			Body: renderToggle("deluxe", "toggle_variant", "Deluxe edition") +
				renderToggle("optional", "toggle_optional", "Optional assets (music and extras)") +
				renderToggle("muted", "toggle_volume", "Mute installer sounds"),
			Buttons: []button{
				{Label: "Back", Intent: "back"},
				{Label: "Install", Intent: "install", Style: buttonPrimary},
			},
		},
		{
			ID:    screenID(installer.ScreenProgress),
			Title: "Installing",
			Body: `            <div class="progress-container">
                <p class="progress-stage" data-bind="stage"></p>
                <div class="progress-bar-wrapper">
                    <div class="progress-bar" style="width: 0%"></div>
                </div>
                <p class="progress-status" data-bind="percent">0%</p>
            </div>
`,
			Buttons: []button{
				{Label: "Cancel", Intent: "abort", Style: buttonDanger},
			},
		},
		{
			ID:       screenID(installer.ScreenAborted),
			Title:    "Installation Cancelled",
			Subtitle: "Setup was cancelled before " + cfg.ProductName + " was fully installed.",
			Body:     `            <p class="flow-message">Files that were already unpacked were left in place.</p>` + "\n",
			Buttons: []button{
				{Label: "Close", Intent: "close", Style: buttonPrimary},
			},
		},
		{
			ID:       screenID(installer.ScreenDone),
			Title:    "Installation Complete",
			Subtitle: cfg.ProductName + " has been installed.",
			Body: fmt.Sprintf(`            <p class="flow-message">Enjoy %s!</p>
            <div class="link-row">
%s            </div>
`, product, renderButton(button{Label: "What's new", Intent: "link_changelog", Style: buttonLink})),
			Buttons: []button{
				{Label: "Finish", Intent: "close", Style: buttonPrimary},
			},
		},
	}
}

func renderScreen(s screen) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf(`        <section class="flow-screen" id="screen-%s" hidden>
`, s.ID))

	buf.WriteString(`        <div class="flow-header">
`)
	if s.Title != "" {
		buf.WriteString(`            <h1 class="flow-title">` + html.EscapeString(s.Title) + `</h1>
`)
	}
	if s.Subtitle != "" {
		buf.WriteString(`            <p class="flow-subtitle">` + html.EscapeString(s.Subtitle) + `</p>
`)
	}
	buf.WriteString(`        </div>
`)

	buf.WriteString(`        <div class="flow-content">
`)
	buf.WriteString(s.Body)
	buf.WriteString(`        </div>
`)

	buf.WriteString(`        <div class="flow-footer">
            <div class="button-spacer"></div>
`)
	for _, b := range s.Buttons {
		buf.WriteString(renderButton(b))
	}
	buf.WriteString(`        </div>
        </section>
`)
	return buf.String()
}

func renderLicense(text string) string {
	if text == "" {
		text = "No license text was provided."
	}
	return fmt.Sprintf(`            <div class="license-content">%s</div>
`, html.EscapeString(text))
}

// renderToggle renders a checkbox bound to a viewState field. Clicking it
// sends the toggle intent; the checked state comes back through render().
func renderToggle(bind, intent, label string) string {
	return fmt.Sprintf(`            <label class="form-checkbox">
                <input type="checkbox" data-bind="%s" data-intent="%s">
                <span>%s</span>
            </label>
`, html.EscapeString(bind), html.EscapeString(intent), html.EscapeString(label))
}

// renderButton renders a single button element.
func renderButton(b button) string {
	btnClass := "btn"
	switch b.Style {
	case buttonPrimary:
		btnClass += " btn-primary"
	case buttonDanger:
		btnClass += " btn-destructive"
	case buttonLink:
		btnClass += " btn-link"
	default:
		btnClass += " btn-default"
	}

	return fmt.Sprintf(`            <button type="button" class="%s" data-intent="%s">%s</button>
`, btnClass, html.EscapeString(b.Intent), html.EscapeString(b.Label))
}
