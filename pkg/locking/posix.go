//go:build !windows && !plan9

package locking

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/folderlock/folderlock/pkg/logging"
	"github.com/folderlock/folderlock/pkg/must"
)

// posixStrategy implements kernel advisory record locking. The record covers
// the whole file (a zero length extends to end-of-file, including any future
// growth).
type posixStrategy struct {
	// path is the locked file.
	path string
	// logger is used for probe and cleanup diagnostics.
	logger *logging.Logger
	// file is the descriptor dedicated to locking. It is non-nil from a
	// successful open until abandon or release.
	file *os.File
}

// newPOSIXStrategy creates a new POSIX record locking strategy.
func newPOSIXStrategy(path string, logger *logging.Logger) (strategy, error) {
	return &posixStrategy{path: path, logger: logger}, nil
}

// recordLock creates a whole-file record lock specification of the specified
// type.
func recordLock(lockType int16) *unix.Flock_t {
	return &unix.Flock_t{
		Type:   lockType,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    0,
	}
}

// isContention returns whether or not a record locking error indicates that
// the lock is held elsewhere. POSIX permits either EAGAIN or EACCES for a
// conflicting non-blocking request. An interrupted request is also retried.
func isContention(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EACCES) ||
		errors.Is(err, unix.EINTR)
}

func (s *posixStrategy) open() error {
	// This descriptor is never used for folder content.
	file, err := os.OpenFile(s.path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	s.file = file
	return nil
}

func (s *posixStrategy) attempt() error {
	if err := unix.FcntlFlock(s.file.Fd(), setLockCommand, recordLock(unix.F_WRLCK)); err != nil {
		if isContention(err) {
			return errContended
		}
		return errors.Wrap(err, "record lock request failed")
	}
	return nil
}

func (s *posixStrategy) abandon() {
	if s.file != nil {
		must.Close(s.file, s.logger)
		s.file = nil
	}
}

func (s *posixStrategy) release() error {
	if s.file == nil {
		return nil
	}
	defer func() {
		s.file = nil
	}()

	// Closing the descriptor also drops the lock, so an unlock failure is
	// reported but the descriptor is still closed.
	if err := unix.FcntlFlock(s.file.Fd(), setLockCommand, recordLock(unix.F_UNLCK)); err != nil {
		must.Close(s.file, s.logger)
		return errors.Wrap(err, "record unlock request failed")
	}
	return errors.Wrap(s.file.Close(), "unable to close lock descriptor")
}

func (s *posixStrategy) probe() ProbeResult {
	// Open a separate, read-only descriptor. A write lock can't be requested
	// through it, but a read lock conflicts with any write lock held
	// elsewhere.
	file, err := os.Open(s.path)
	if err != nil {
		s.logger.Errorf("cannot open %s for lock probe: %v", s.path, err)
		return ProbeFailed
	}
	defer must.Close(file, s.logger)

	// Attempt the probe lock.
	if err := unix.FcntlFlock(file.Fd(), setLockCommand, recordLock(unix.F_RDLCK)); err != nil {
		if isContention(err) {
			return ProbeHeld
		}
		s.logger.Errorf("lock probe on %s failed: %v", s.path, err)
		return ProbeFailed
	}

	// Release the probe lock immediately.
	if err := unix.FcntlFlock(file.Fd(), setLockCommand, recordLock(unix.F_UNLCK)); err != nil {
		s.logger.Warnf("unable to release probe lock on %s: %v", s.path, err)
	}
	return ProbeAvailable
}
