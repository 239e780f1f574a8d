package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are those signals which folderlock considers to be
// requesting termination. SIGINT is emulated by Go on Ctrl-C and Ctrl-Break
// and SIGTERM on console close, logoff, and shutdown events.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
