package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestRequireFolderArgument tests folder argument validation, including
// commands separated by "--".
func TestRequireFolderArgument(t *testing.T) {
	// Set up test cases.
	testCases := []struct {
		arguments   []string
		expectValid bool
	}{
		{[]string{}, false},
		{[]string{"inbox"}, true},
		{[]string{"inbox", "extra"}, false},
		{[]string{"inbox", "--", "true"}, true},
		{[]string{"inbox", "--", "sh", "-c", "exit 3"}, true},
		{[]string{"--", "true"}, false},
		{[]string{"inbox", "outbox", "--", "true"}, false},
	}

	// Process test cases.
	for _, testCase := range testCases {
		var validationErr error
		command := &cobra.Command{
			Use:  "lock",
			Args: RequireFolderArgument,
			Run:  func(*cobra.Command, []string) {},
		}
		command.SetArgs(testCase.arguments)
		command.SilenceErrors = true
		command.SilenceUsage = true
		validationErr = command.Execute()
		if validationErr != nil && testCase.expectValid {
			t.Errorf("valid arguments %v rejected: %v", testCase.arguments, validationErr)
		} else if validationErr == nil && !testCase.expectValid {
			t.Errorf("invalid arguments %v accepted", testCase.arguments)
		}
	}
}

// TestDisallowArguments tests that positional arguments are rejected.
func TestDisallowArguments(t *testing.T) {
	if err := DisallowArguments(nil, nil); err != nil {
		t.Error("empty arguments rejected:", err)
	}
	if err := DisallowArguments(nil, []string{"extra"}); err == nil {
		t.Error("positional arguments accepted")
	}
}

// TestExitStatusFormatting tests exit status error formatting.
func TestExitStatusFormatting(t *testing.T) {
	if message := ExitStatus(3).Error(); message != "exit status 3" {
		t.Error("unexpected exit status message:", message)
	}
}
