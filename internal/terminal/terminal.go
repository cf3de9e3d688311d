// Package terminal reports properties of the attached terminal.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Interactive reports whether f is a terminal. Spinners and other redrawn
// output are only shown when stdout is interactive.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or 80 when it cannot be determined.
func Width(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
