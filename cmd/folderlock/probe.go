package main

import (
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/folderlock/folderlock/cmd"
	configuration "github.com/folderlock/folderlock/pkg/configuration/locking"
	"github.com/folderlock/folderlock/pkg/locking"
)

const (
	// probeExitHeld is the exit status used when the folder lock is held.
	probeExitHeld = 1
	// probeExitFailed is the exit status used when the probe failed.
	probeExitFailed = 2
)

// usesLockFile indicates whether or not a configuration's method maintains a
// lock file.
func usesLockFile(c *configuration.Configuration) bool {
	switch c.Method {
	case locking.MethodDotLock, locking.MethodNFS:
		return true
	case locking.MethodMulti:
		if len(c.Methods) == 0 {
			return true
		}
		for _, m := range c.Methods {
			if m == locking.MethodDotLock || m == locking.MethodNFS {
				return true
			}
		}
	}
	return false
}

// describeLockFile prints the owner and age of a lock file, if it exists.
func describeLockFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	owner := "unknown owner"
	if contents, err := os.ReadFile(path); err == nil && len(contents) > 0 {
		owner = strings.TrimSpace(string(contents))
	}
	fmt.Printf("Lock file: %s (%s, created %s)\n", path, owner, humanize.Time(info.ModTime()))
}

// probeMain is the entry point for the probe command.
func probeMain(_ *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("invalid number of arguments")
	}
	folder := arguments[0]

	// Create the locker.
	locker, merged, _, err := newLocker(&probeConfiguration.locker, folder)
	if err != nil {
		return err
	}

	// Perform the probe and print the result.
	result := locker.Probe()
	fmt.Printf("%s: %s\n", folder, result)
	if result == locking.ProbeHeld && usesLockFile(merged) {
		lockPath := merged.LockFile
		if lockPath == "" {
			lockPath = locking.DotLockPath(folder)
		}
		describeLockFile(lockPath)
	}

	// Report the result through the exit status.
	switch result {
	case locking.ProbeAvailable:
		return nil
	case locking.ProbeHeld:
		return cmd.ExitStatus(probeExitHeld)
	default:
		return cmd.ExitStatus(probeExitFailed)
	}
}

// probeCommand is the probe command.
var probeCommand = &cobra.Command{
	Use:   "probe <folder>",
	Short: "Check whether a folder could be locked without waiting",
	Long: `Check whether a folder could be locked without waiting.

The probe never disturbs an existing lock. The exit status is 0 if the lock is
available, 1 if it's held elsewhere, and 2 if availability couldn't be
determined.`,
	Args:         cobra.ExactArgs(1),
	Run:          cmd.Mainify(probeMain),
	SilenceUsage: true,
}

// probeConfiguration stores configuration for the probe command.
var probeConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// locker stores locking flags.
	locker lockerFlags
}

func init() {
	// Grab a handle for the command line flags.
	flags := probeCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&probeConfiguration.help, "help", "h", false, "Show help information")

	// Wire up locking flags.
	probeConfiguration.locker.register(flags)
}
