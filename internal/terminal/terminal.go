// Package terminal holds the small amount of raw escape-code handling the
// renderer cannot leave to its TUI framework.
package terminal

import "os"

// Capabilities describes what the hosting terminal can display.
type Capabilities struct {
	SupportsRGB bool
	TermProgram string
}

// DetectCapabilities reads the usual environment hints. Truecolor is
// assumed unless COLORTERM says otherwise; virtually every terminal this
// program makes sense in supports it.
func DetectCapabilities() *Capabilities {
	caps := &Capabilities{
		SupportsRGB: true,
		TermProgram: os.Getenv("TERM_PROGRAM"),
	}
	if colorterm := os.Getenv("COLORTERM"); colorterm == "" {
		if term := os.Getenv("TERM"); term == "linux" || term == "dumb" {
			caps.SupportsRGB = false
		}
	}
	return caps
}

// Reset restores cursor visibility, colors, the main screen buffer and
// mouse reporting. Called on exit paths where the TUI may not have torn
// down cleanly.
func Reset() {
	os.Stdout.WriteString("\033[?25h")
	os.Stdout.WriteString("\033[0m")
	os.Stdout.WriteString("\033[?1049l")
	os.Stdout.WriteString("\033[?1000l")
	os.Stdout.WriteString("\033[?1002l")
	os.Stdout.WriteString("\033[?1003l")
	os.Stdout.WriteString("\033[?1006l")
	os.Stdout.Sync()
}
