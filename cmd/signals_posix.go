//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are those signals which folderlock considers to be
// requesting termination. Losing the controlling terminal (SIGHUP) also
// counts.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
}
