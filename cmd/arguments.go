package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// DisallowArguments is a Cobra arguments validator that disallows positional
// arguments. It is an alternative to cobra.NoArgs, which treats arguments as
// command names and returns a somewhat cryptic error message.
func DisallowArguments(_ *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New("command does not accept arguments")
	}
	return nil
}

// RequireFolderArgument is a Cobra arguments validator that requires exactly
// one folder argument, optionally followed by a command after a "--"
// separator.
func RequireFolderArgument(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return errors.New("folder path required")
	}
	dash := command.ArgsLenAtDash()
	if dash < 0 && len(arguments) > 1 {
		return errors.New("unexpected arguments (separate commands from the folder with \"--\")")
	} else if dash == 0 {
		return errors.New("folder path must precede \"--\"")
	} else if dash > 1 {
		return errors.New("only one folder may be specified")
	}
	return nil
}
