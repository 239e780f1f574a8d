package locking

import (
	"testing"

	"github.com/spf13/pflag"
)

// TestParseTimeout tests timeout specification parsing.
func TestParseTimeout(t *testing.T) {
	// Set up test cases.
	testCases := []struct {
		text            string
		expectedTimeout Timeout
		expectFailure   bool
	}{
		{"", DefaultTimeout, false},
		{"default", DefaultTimeout, false},
		{"notimeout", NoTimeout, false},
		{"Never", NoTimeout, false},
		{"unlimited", NoTimeout, false},
		{"1", 1, false},
		{" 30 ", 30, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"-5", 0, true},
		{"soon", 0, true},
	}

	// Process test cases.
	for _, testCase := range testCases {
		timeout, err := ParseTimeout(testCase.text)
		if err != nil {
			if !testCase.expectFailure {
				t.Errorf("unable to parse timeout (%s): %s", testCase.text, err)
			}
		} else if testCase.expectFailure {
			t.Error("parsing succeeded unexpectedly for text:", testCase.text)
		} else if timeout != testCase.expectedTimeout {
			t.Errorf(
				"parsed timeout (%s) does not match expected (%s)",
				timeout,
				testCase.expectedTimeout,
			)
		}
	}
}

// TestTimeoutAttempts tests attempt budget computation.
func TestTimeoutAttempts(t *testing.T) {
	// Set up test cases.
	testCases := []struct {
		timeout           Timeout
		expectedAttempts  int
		expectedUnlimited bool
		expectedString    string
	}{
		{0, int(DefaultTimeout), false, "10"},
		{1, 1, false, "1"},
		{5, 5, false, "5"},
		{NoTimeout, 0, true, "notimeout"},
	}

	// Process test cases.
	for _, testCase := range testCases {
		if attempts := testCase.timeout.Attempts(); attempts != testCase.expectedAttempts {
			t.Errorf("attempt count (%d) does not match expected (%d)", attempts, testCase.expectedAttempts)
		}
		if unlimited := testCase.timeout.Unlimited(); unlimited != testCase.expectedUnlimited {
			t.Errorf("unlimited status (%t) does not match expected (%t)", unlimited, testCase.expectedUnlimited)
		}
		if s := testCase.timeout.String(); s != testCase.expectedString {
			t.Errorf("string representation (%s) does not match expected (%s)", s, testCase.expectedString)
		}
	}
}

// TestTimeoutFlag tests that Timeout works as a command line flag value.
func TestTimeoutFlag(t *testing.T) {
	var timeout Timeout
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Var(&timeout, "timeout", "acquisition timeout")
	if err := flags.Parse([]string{"--timeout", "notimeout"}); err != nil {
		t.Fatal("unable to parse flags:", err)
	}
	if timeout != NoTimeout {
		t.Error("flag value mismatch:", timeout)
	}
	if err := flags.Parse([]string{"--timeout", "zero"}); err == nil {
		t.Error("invalid timeout flag accepted")
	}
	if typ := flags.Lookup("timeout").Value.Type(); typ != "timeout" {
		t.Error("unexpected flag type:", typ)
	}
}
