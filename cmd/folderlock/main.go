package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/folderlock/folderlock/cmd"
	"github.com/folderlock/folderlock/pkg/folderlock"
	"github.com/folderlock/folderlock/pkg/must"
)

// rootMain is the entry point for the root command.
func rootMain(command *cobra.Command, _ []string) error {
	// If no commands were given, then print help information and bail. We don't
	// have to worry about warning about arguments being present here (which
	// would be incorrect usage) because arguments can't even reach this point
	// (they will be mistaken for subcommands and a error will be displayed).
	must.CommandHelp(command, nil)

	// Success.
	return nil
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:          "folderlock",
	Version:      folderlock.Version,
	Short:        "folderlock acquires exclusive locks on mail folders",
	RunE:         rootMain,
	SilenceUsage: true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// configuration is the path of the locking configuration file. If empty,
	// the per-user configuration file is used.
	configuration string
	// logLevel is the log level specification.
	logLevel string
}

func init() {
	// Disable Cobra's command sorting behavior. By default, it sorts commands
	// alphabetically in the help output.
	cobra.EnableCommandSorting = false

	// Disable Cobra's use of mousetrap, which would otherwise refuse to run
	// when started from Windows Explorer.
	cobra.MousetrapHelpText = ""

	// Set the template used by the version flag.
	rootCommand.SetVersionTemplate("folderlock version {{ .Version }}\n")

	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Add flags shared by all commands.
	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.SortFlags = false
	persistentFlags.StringVarP(&rootConfiguration.configuration, "config", "c", "", "Specify the locking configuration file")
	persistentFlags.StringVar(&rootConfiguration.logLevel, "log-level", "", "Specify the log level (disabled|error|warn|info|debug|trace)")

	// Register commands. We do this here (rather than in individual init
	// functions) so that we can control the order.
	rootCommand.AddCommand(
		lockCommand,
		probeCommand,
		versionCommand,
	)
}

func main() {
	// Disable color when diagnostics aren't going to a terminal.
	cmd.ConfigureColor()

	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
