//go:build windows

package setupflow

import (
	"github.com/crafted-tech/webframe"
)

// WebView2Status contains information about the WebView2 runtime installation.
type WebView2Status = webframe.WebView2Status

// WebView2InstallURL is the URL to download the WebView2 Evergreen Runtime installer.
const WebView2InstallURL = webframe.WebView2InstallURL

// CheckWebView2 checks if the WebView2 runtime is installed and returns its status.
// Safe to call before any UI initialization.
func CheckWebView2() WebView2Status {
	return webframe.CheckWebView2Runtime("")
}

// NativeError shows a native error dialog.
// Safe to call before any UI initialization.
func NativeError(title, message string) {
	webframe.ShowErrorDialog(title, message)
}
