package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/folderlock/folderlock/cmd"
	"github.com/folderlock/folderlock/pkg/locking"
)

// folderEnvironmentVariable is the environment variable through which child
// commands receive the path of the locked folder.
const folderEnvironmentVariable = "FOLDERLOCK_FOLDER"

// lockMain is the entry point for the lock command.
func lockMain(_ *cobra.Command, arguments []string) error {
	// Extract the folder and any command.
	folder, command := arguments[0], arguments[1:]

	// Create the locker.
	locker, merged, logger, err := newLocker(&lockConfiguration.locker, folder)
	if err != nil {
		return err
	}

	// Acquire the lock, allowing termination signals to interrupt waiting.
	ctx, signals, stop := cmd.TerminationContext(context.Background())
	defer stop()
	if !locker.Lock(ctx) {
		if ctx.Err() != nil {
			return errors.New("lock acquisition interrupted")
		}
		return errors.Errorf("unable to lock %s", folder)
	}
	defer locker.Unlock()

	// Keep any lock files fresh while the lock is held so that other lockers
	// don't expire them.
	go locking.RefreshRegularly(ctx, locker, locking.RefreshInterval(merged.Expires), logger)

	// If there's no command, then hold the lock until terminated.
	if len(command) == 0 {
		fmt.Println("Holding lock on", folder)
		<-ctx.Done()
		logger.Debugf("releasing lock on %s", folder)
		return nil
	}

	// Start the command.
	process := exec.Command(command[0], command[1:]...)
	process.Stdin = os.Stdin
	process.Stdout = os.Stdout
	process.Stderr = os.Stderr
	process.Env = append(os.Environ(), folderEnvironmentVariable+"="+folder)
	if err := process.Start(); err != nil {
		return errors.Wrap(err, "unable to start command")
	}

	// Wait for the command to exit, forwarding termination signals.
	done := make(chan error, 1)
	go func() {
		done <- process.Wait()
	}()
	for waiting := true; waiting; {
		select {
		case err = <-done:
			waiting = false
		case s := <-signals:
			logger.Debugf("forwarding %s to command", s)
			if signalErr := process.Process.Signal(s); signalErr != nil {
				cmd.Warning(fmt.Sprintf("unable to forward %s to command: %v", s, signalErr))
			}
		}
	}

	// Propagate the command's exit status.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return cmd.ExitStatus(exitErr.ExitCode())
	} else if err != nil {
		return errors.Wrap(err, "unable to wait for command")
	}
	return nil
}

// lockCommand is the lock command.
var lockCommand = &cobra.Command{
	Use:   "lock <folder> [-- <command> [<argument>...]]",
	Short: "Lock a folder while running a command or until terminated",
	Long: `Lock a folder while running a command or until terminated.

If a command is given, the lock is held while the command runs and released
once it exits, with the command's exit status propagated. The locked folder's
path is exported to the command as ` + folderEnvironmentVariable + `.`,
	Args:         cmd.RequireFolderArgument,
	Run:          cmd.Mainify(lockMain),
	SilenceUsage: true,
}

// lockConfiguration stores configuration for the lock command.
var lockConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// locker stores locking flags.
	locker lockerFlags
}

func init() {
	// Grab a handle for the command line flags.
	flags := lockCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&lockConfiguration.help, "help", "h", false, "Show help information")

	// Wire up locking flags.
	lockConfiguration.locker.register(flags)
}
