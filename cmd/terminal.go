package cmd

import (
	"os"

	"github.com/fatih/color"
	isatty "github.com/mattn/go-isatty"
)

// StandardErrorIsTerminal returns whether or not standard error is attached to
// a terminal, including mintty-based Cygwin terminals on Windows.
func StandardErrorIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConfigureColor disables colorized output when standard error, which carries
// all diagnostic output, isn't a terminal.
func ConfigureColor() {
	if !StandardErrorIsTerminal() {
		color.NoColor = true
	}
}
