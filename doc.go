/*
Package setupflow is a desktop game installer: a wizard window driven by the
installer engine in the installer subpackage.

The Window type renders every wizard screen in a webview and implements the
engine's Presenter, DirectoryPicker and Notifier interfaces. Clicks in the
page become events on the installer's EventQueue; the Controller decides what
happens next.

# Basic Usage

The window's event loop must own the main thread, so the controller runs in
a goroutine and quits the window when it returns:

	queue := installer.NewEventQueue()
	win, err := setupflow.New(queue,
		setupflow.WithTitle("Example Game Setup"),
		setupflow.WithProductName("Example Game"),
		setupflow.WithLicense(licenseText),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer win.Close()

	ctrl := installer.NewController(installer.ControllerDeps{
		Queue:     queue,
		State:     state,
		Worker:    worker,
		Presenter: win,
		Picker:    win,
		Notifier:  win,
	})
	go func() {
		ctrl.Run(ctx)
		win.Quit()
	}()
	win.Run()

# Screens

Welcome, License, SelectDirectory and Options are linked by Next and Back.
Install switches to Progress; a run ends on Done, on Aborted, or with an
alert followed by the window closing.

# JS->Go Communication

runtime.js posts JSON messages of the form {"type":"intent","intent":"next"}.
The Go side pushes the whole view state back with window.setupflow.render().
Shift+F5 toggles between dark and light themes.
*/
package setupflow
