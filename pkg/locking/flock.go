package locking

import (
	"os"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
)

// flockStrategy implements BSD-style whole-file locking on the folder file.
// Like open file description record locks, these locks belong to the open
// file, so separate lockers within one process contend with each other.
type flockStrategy struct {
	// path is the locked file.
	path string
	// logger is used for probe diagnostics.
	logger *logging.Logger
	// lock is the lock for the current acquisition. It is non-nil from a
	// successful open until abandon or release.
	lock *flock.Flock
}

// newFlockStrategy creates a new flock strategy.
func newFlockStrategy(path string, logger *logging.Logger) strategy {
	return &flockStrategy{path: path, logger: logger}
}

func (s *flockStrategy) open() error {
	// The flock package creates missing files, but a missing folder is an
	// open failure for us.
	if _, err := os.Stat(s.path); err != nil {
		return err
	}
	s.lock = flock.New(s.path, flock.SetFlag(os.O_RDWR))
	return nil
}

func (s *flockStrategy) attempt() error {
	locked, err := s.lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "flock request failed")
	} else if !locked {
		return errContended
	}
	return nil
}

func (s *flockStrategy) abandon() {
	if s.lock != nil {
		if err := s.lock.Close(); err != nil {
			s.logger.Warnf("unable to close flock descriptor for %s: %v", s.path, err)
		}
		s.lock = nil
	}
}

func (s *flockStrategy) release() error {
	if s.lock == nil {
		return nil
	}
	defer func() {
		s.lock = nil
	}()
	return errors.Wrap(s.lock.Close(), "unable to release flock")
}

func (s *flockStrategy) probe() ProbeResult {
	probe := flock.New(s.path, flock.SetFlag(os.O_RDONLY))
	defer func() {
		if err := probe.Close(); err != nil {
			s.logger.Warnf("unable to close flock probe for %s: %v", s.path, err)
		}
	}()
	locked, err := probe.TryRLock()
	if err != nil {
		s.logger.Errorf("flock probe on %s failed: %v", s.path, err)
		return ProbeFailed
	} else if !locked {
		return ProbeHeld
	}
	return ProbeAvailable
}
