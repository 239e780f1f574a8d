package locking

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/folderlock/folderlock/pkg/logging"
)

const (
	// testRetryInterval is the retry interval used by tests. It's short enough
	// to keep timeout tests fast but long enough to be measurable.
	testRetryInterval = 20 * time.Millisecond

	// lockerTestHelperEnvironmentVariable is the environment variable that
	// switches the test binary into lock helper mode. Its value is the locking
	// method and folder path, separated by a space.
	lockerTestHelperEnvironmentVariable = "FOLDERLOCK_LOCKER_TEST_HELPER"

	// lockerTestFailMessage is a sentinel message used to indicate lock
	// acquisition failure in the helper process.
	lockerTestFailMessage = "lock acquisition failed"
)

func init() {
	// Keep log assertions independent of terminal detection.
	color.NoColor = true
}

// TestMain runs the lock helper instead of the tests when requested.
func TestMain(m *testing.M) {
	if specification := os.Getenv(lockerTestHelperEnvironmentVariable); specification != "" {
		os.Exit(runLockerTestHelper(specification))
	}
	os.Exit(m.Run())
}

// runLockerTestHelper makes a single lock attempt from a separate process and
// returns the process exit code.
func runLockerTestHelper(specification string) int {
	components := strings.SplitN(specification, " ", 2)
	if len(components) != 2 {
		fmt.Fprintln(os.Stderr, "invalid helper specification")
		return 2
	}
	var method Method
	if err := method.Set(components[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	locker, err := NewLocker(Options{
		Method:        method,
		Filename:      components[1],
		Timeout:       1,
		RetryInterval: testRetryInterval,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if !locker.Lock(context.Background()) {
		fmt.Fprintln(os.Stderr, lockerTestFailMessage)
		return 1
	}
	locker.Unlock()
	return 0
}

// lockFromOtherProcess attempts to acquire and release a lock on the folder
// from a separate process, returning whether or not acquisition succeeded.
func lockFromOtherProcess(t *testing.T, method Method, folder string) bool {
	t.Helper()
	command := exec.Command(os.Args[0], "-test.run=^$")
	command.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s %s", lockerTestHelperEnvironmentVariable, method, folder),
	)
	errorBuffer := &bytes.Buffer{}
	command.Stderr = errorBuffer
	if err := command.Run(); err == nil {
		return true
	} else if !strings.Contains(errorBuffer.String(), lockerTestFailMessage) {
		t.Fatal("lock helper failed unexpectedly:", err, errorBuffer.String())
	}
	return false
}

// newTestFolder creates an empty folder file in a temporary directory and
// returns its path.
func newTestFolder(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inbox")
	if err := os.WriteFile(path, []byte("From sender@example.org\n\nhello\n"), 0600); err != nil {
		t.Fatal("unable to create test folder:", err)
	}
	return path
}

// newTestLogger creates a logger that records everything into a buffer.
func newTestLogger() (*logging.Logger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return logging.NewLogger(logging.LevelTrace, buffer), buffer
}

// newTestLocker creates a locker with the test retry interval, failing the
// test on error.
func newTestLocker(t *testing.T, options Options) Locker {
	t.Helper()
	if options.RetryInterval == 0 {
		options.RetryInterval = testRetryInterval
	}
	locker, err := NewLocker(options)
	if err != nil {
		t.Fatal("unable to create locker:", err)
	}
	return locker
}
