package setupflow

import (
	"encoding/json"
	"fmt"

	"github.com/crafted-tech/setupflow/installer"
)

// Message types sent by runtime.js.
const (
	msgIntent      = "intent"
	msgAlertAck    = "alert_ack"
	msgPageReady   = "page_ready"
	msgToggleTheme = "toggle_theme"
)

// intentBrowse is handled by the window before it becomes a RequestDirPick
// event, because the folder dialog has to run on the UI thread.
const intentBrowse = "browse"

// message represents a message received from JavaScript.
type message struct {
	Type   string `json:"type"`
	Intent string `json:"intent"`
}

var intentEvents = map[string]installer.Event{
	"next":            installer.Intent(installer.EventNextPage),
	"back":            installer.Intent(installer.EventPrevPage),
	intentBrowse:      installer.Intent(installer.EventDirPick),
	"toggle_variant":  installer.Intent(installer.EventToggleVariant),
	"toggle_optional": installer.Intent(installer.EventToggleOptionalAssets),
	"toggle_volume":   installer.Intent(installer.EventToggleVolume),
	"install":         installer.Intent(installer.EventInstallStart),
	"abort":           installer.Intent(installer.EventAbortRequest),
	"close":           installer.Intent(installer.EventClose),
	"link_credits":    installer.OpenLinkIntent(installer.LinkCredits),
	"link_changelog":  installer.OpenLinkIntent(installer.LinkChangelog),
}

func parseMessage(raw string) (message, error) {
	var msg message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return message{}, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return message{}, fmt.Errorf("message without type")
	}
	return msg, nil
}

// intentEvent maps an intent name to the event it sends.
func intentEvent(name string) (installer.Event, bool) {
	ev, ok := intentEvents[name]
	return ev, ok
}
