//go:build windows || plan9

package locking

import (
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
)

// newPOSIXStrategy reports that record locking is unavailable on this
// platform.
func newPOSIXStrategy(_ string, _ *logging.Logger) (strategy, error) {
	return nil, errors.New("posix record locking not supported on this platform")
}

// newNFSStrategy reports that link-count locking is unavailable on this
// platform.
func newNFSStrategy(_ string, _ time.Duration, _ clock.Clock, _ *logging.Logger) (strategy, error) {
	return nil, errors.New("nfs locking not supported on this platform")
}
