package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crafted-tech/setupflow/installer"
)

// Messages sent into the program by the presenter methods.
type (
	screenMsg   installer.Screen
	stageMsg    installer.StageID
	progressMsg float64
	optionsMsg  installer.Snapshot
	alertMsg    string
	toastMsg    string
	promptMsg   string
)

// model is the bubbletea model. It only renders and turns keys into
// intents; every decision is made by the controller.
type model struct {
	cfg  Config
	send func(installer.Event)

	screen   installer.Screen
	stage    installer.StageID
	staged   bool
	fraction float64
	snap     installer.Snapshot
	toast    string
	alert    string
	width    int

	prompting bool
	input     textinput.Model
	bar       progress.Model

	picked chan<- string
	acks   chan<- struct{}
}

func newModel(cfg Config, send func(installer.Event), picked chan<- string, acks chan<- struct{}) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Width = 60
	ti.PromptStyle = checkedStyle

	return model{
		cfg:    cfg,
		send:   send,
		screen: installer.ScreenWelcome,
		input:  ti,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		picked: picked,
		acks:   acks,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Clamp progress bar width to a reasonable range
		w := msg.Width - 10
		if w < 20 {
			w = 20
		}
		if w > 80 {
			w = 80
		}
		m.bar.Width = w
		return m, nil

	case screenMsg:
		m.screen = installer.Screen(msg)
		m.toast = ""
		if m.screen == installer.ScreenProgress {
			m.staged = false
			m.fraction = 0
		}
		return m, nil
	case stageMsg:
		m.stage = installer.StageID(msg)
		m.staged = true
		return m, nil
	case progressMsg:
		m.fraction = float64(msg)
		return m, nil
	case optionsMsg:
		m.snap = installer.Snapshot(msg)
		return m, nil
	case alertMsg:
		m.alert = string(msg)
		return m, nil
	case toastMsg:
		m.toast = string(msg)
		return m, nil
	case promptMsg:
		m.prompting = true
		m.input.Placeholder = string(msg)
		m.input.SetValue(m.snap.Destination)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.alert != "" {
		if key == "enter" || key == "esc" || key == " " {
			m.alert = ""
			select {
			case m.acks <- struct{}{}:
			default:
			}
		}
		return m, nil
	}

	if m.prompting {
		switch key {
		case "enter":
			m.finishPrompt(strings.TrimSpace(m.input.Value()))
			return m, nil
		case "esc", "ctrl+c":
			m.finishPrompt("")
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if key == "ctrl+c" {
		if m.screen == installer.ScreenProgress {
			m.send(installer.Intent(installer.EventAbortRequest))
		} else {
			m.send(installer.Intent(installer.EventClose))
		}
		return m, nil
	}

	switch m.screen {
	case installer.ScreenWelcome:
		switch key {
		case "enter", "n", "right":
			m.send(installer.Intent(installer.EventNextPage))
		case "q", "esc":
			m.send(installer.Intent(installer.EventClose))
		case "c":
			m.send(installer.OpenLinkIntent(installer.LinkCredits))
		case "l":
			m.send(installer.OpenLinkIntent(installer.LinkChangelog))
		}
	case installer.ScreenLicense, installer.ScreenSelectDirectory, installer.ScreenOptions:
		switch key {
		case "b", "left", "backspace":
			m.send(installer.Intent(installer.EventPrevPage))
		case "q", "esc":
			m.send(installer.Intent(installer.EventClose))
		}
		m.handlePageKey(key)
	case installer.ScreenProgress:
		switch key {
		case "x", "esc":
			m.send(installer.Intent(installer.EventAbortRequest))
		}
	case installer.ScreenAborted, installer.ScreenDone:
		switch key {
		case "enter", "q", "esc":
			m.send(installer.Intent(installer.EventClose))
		case "l":
			if m.screen == installer.ScreenDone {
				m.send(installer.OpenLinkIntent(installer.LinkChangelog))
			}
		}
	}
	return m, nil
}

// handlePageKey handles the keys specific to the linked setup pages.
func (m model) handlePageKey(key string) {
	switch m.screen {
	case installer.ScreenLicense:
		if key == "enter" || key == "a" {
			m.send(installer.Intent(installer.EventNextPage))
		}
	case installer.ScreenSelectDirectory:
		switch key {
		case "enter", "n", "right":
			m.send(installer.Intent(installer.EventNextPage))
		case "p":
			m.send(installer.Intent(installer.EventDirPick))
		}
	case installer.ScreenOptions:
		switch key {
		case "1":
			m.send(installer.Intent(installer.EventToggleVariant))
		case "2":
			m.send(installer.Intent(installer.EventToggleOptionalAssets))
		case "3", "m":
			m.send(installer.Intent(installer.EventToggleVolume))
		case "enter", "i":
			m.send(installer.Intent(installer.EventInstallStart))
		}
	}
}

func (m *model) finishPrompt(path string) {
	m.prompting = false
	m.input.Blur()
	select {
	case m.picked <- path:
	default:
	}
}

func (m model) View() string {
	var s strings.Builder

	switch m.screen {
	case installer.ScreenWelcome:
		s.WriteString(titleStyle.Render("Welcome"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(fmt.Sprintf("This wizard installs %s on your computer.", m.cfg.ProductName)))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("ENTER next  |  C credits  |  L changelog  |  Q quit"))
	case installer.ScreenLicense:
		s.WriteString(titleStyle.Render("License Agreement"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(m.licenseText()))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("ENTER / A agree  |  B back  |  Q quit"))
	case installer.ScreenSelectDirectory:
		s.WriteString(titleStyle.Render("Installation Folder"))
		s.WriteString("\n")
		if m.prompting {
			s.WriteString(subtitleStyle.Render(m.input.Placeholder))
			s.WriteString("\n\n")
			s.WriteString(m.input.View())
			s.WriteString("\n\n")
			s.WriteString(dimStyle.Render("ENTER accept  |  ESC cancel"))
		} else {
			s.WriteString(boxStyle.Render(m.snap.Destination))
			s.WriteString("\n\n")
			s.WriteString(dimStyle.Render("ENTER next  |  P pick folder  |  B back  |  Q quit"))
		}
	case installer.ScreenOptions:
		s.WriteString(titleStyle.Render("Options"))
		s.WriteString("\n")
		s.WriteString(checkbox("1", "Deluxe edition", m.snap.Deluxe))
		s.WriteString(checkbox("2", "Optional assets (music and extras)", m.snap.IncludeOptionalAssets))
		s.WriteString(checkbox("3", "Mute installer sounds", m.snap.Volume == 0))
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("ENTER / I install  |  B back  |  Q quit"))
	case installer.ScreenProgress:
		s.WriteString(titleStyle.Render("Installing"))
		s.WriteString("\n")
		stage := "Starting..."
		if m.staged {
			stage = m.stage.Description()
		}
		s.WriteString(stage)
		s.WriteString("\n\n")
		s.WriteString(m.bar.ViewAs(m.fraction))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("X cancel"))
	case installer.ScreenAborted:
		s.WriteString(warningStyle.Render("Installation Cancelled"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Setup was cancelled before %s was fully installed.", m.cfg.ProductName))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("ENTER close"))
	case installer.ScreenDone:
		s.WriteString(successStyle.Render("Installation Complete"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("%s has been installed to %s.", m.cfg.ProductName, m.snap.Destination))
		s.WriteString("\n\n")
		s.WriteString(dimStyle.Render("ENTER finish  |  L what's new"))
	}

	if m.toast != "" {
		s.WriteString("\n\n")
		s.WriteString(warningStyle.Render("! " + m.toast))
	}
	if m.alert != "" {
		s.WriteString("\n\n")
		s.WriteString(alertStyle.Render(errorStyle.Render(m.alert) + "\n\n" + dimStyle.Render("ENTER ok")))
	}
	s.WriteString("\n")
	return s.String()
}

func (m model) licenseText() string {
	if m.cfg.LicenseText == "" {
		return "No license text was provided."
	}
	return m.cfg.LicenseText
}

func checkbox(key, label string, checked bool) string {
	if checked {
		return checkedStyle.Render(fmt.Sprintf("  [x] %s  %s", key, label)) + "\n"
	}
	return fmt.Sprintf("  [ ] %s  %s\n", key, label)
}
