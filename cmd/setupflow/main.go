// Command setupflow installs the game with a desktop, terminal or headless
// front end.
package main

import (
	"os"
	"runtime"
)

func init() {
	// The webview event loop must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
