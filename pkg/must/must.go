// Package must provides best-effort wrappers for cleanup operations whose
// failures can only be logged.
package must

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/folderlock/folderlock/pkg/logging"
)

// Close closes c, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning on failure. A file that
// no longer exists is not considered a failure.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// CommandHelp prints help for a command, logging a warning on failure.
func CommandHelp(c *cobra.Command, logger *logging.Logger) {
	if err := c.Help(); err != nil {
		logger.Warnf("Unable to help: %s", err.Error())
	}
}
