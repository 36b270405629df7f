//go:build !windows

package setupflow

// WebView2Status contains information about the WebView2 runtime installation.
// On non-Windows platforms, this is a stub.
type WebView2Status struct {
	Installed    bool
	Version      string
	MeetsMinimum bool
}

// WebView2InstallURL is provided for API compatibility only.
const WebView2InstallURL = "https://go.microsoft.com/fwlink/p/?LinkId=2124703"

// CheckWebView2 always reports an installed runtime; the webview on this
// platform ships with the system.
func CheckWebView2() WebView2Status {
	return WebView2Status{Installed: true, MeetsMinimum: true}
}

// NativeError is a no-op on non-Windows platforms.
func NativeError(title, message string) {}
