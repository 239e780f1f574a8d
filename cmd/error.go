package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// ExitStatus is an error that requests termination with a specific exit code.
// It's used by commands that communicate results through their exit status.
type ExitStatus int

// Error implements error.Error.
func (s ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(s))
}

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning: %s", message))
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(color.Error, color.RedString("Error: %v", err))
}

// Fatal prints an error message to standard error and then terminates the
// process with an error exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}
