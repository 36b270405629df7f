package setupflow

import _ "embed"

// cssContent is the embedded stylesheet for the wizard window.
//
//go:embed assets/style.css
var cssContent string

// jsContent is the embedded JavaScript runtime for the wizard window.
//
//go:embed assets/runtime.js
var jsContent string
