package locking

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
	"github.com/folderlock/folderlock/pkg/must"
)

const (
	// dotLockSuffix is appended to file folder paths to compute lock file
	// paths.
	dotLockSuffix = ".lock"
	// directoryLockName is the name of the lock file inside directory folders.
	directoryLockName = ".lock"
	// DefaultExpires is the age after which lock files are considered stale
	// when no expiration is specified.
	DefaultExpires = time.Hour
)

// DotLockPath computes the default lock file path for a folder. Directory
// folders (such as Maildir or MH) are locked with a file inside the directory,
// file folders with a sibling file carrying a ".lock" suffix.
func DotLockPath(folder string) string {
	if info, err := os.Stat(folder); err == nil && info.IsDir() {
		return filepath.Join(folder, directoryLockName)
	}
	return folder + dotLockSuffix
}

// lockFile manages a lock file whose existence represents the held lock. It
// provides the staleness handling, probing, and release shared by the dotlock
// and NFS strategies.
type lockFile struct {
	// path is the lock file path.
	path string
	// expires is the age after which an existing lock file is considered
	// stale and removed. A negative value disables expiration.
	expires time.Duration
	// clock is the time source for staleness checks.
	clock clock.Clock
	// logger is used for staleness and cleanup diagnostics.
	logger *logging.Logger
	// owned is the metadata of the lock file created by this locker. It is
	// non-nil while the lock is held.
	owned os.FileInfo
}

// claim records the lock file at the lock path as ours.
func (f *lockFile) claim() error {
	info, err := os.Lstat(f.path)
	if err != nil {
		return errors.Wrap(err, "unable to query lock file")
	}
	f.owned = info
	return nil
}

// ours returns whether or not the file currently at the lock path is the one
// that we created. A lock file that expired and was replaced by another locker
// is a different file, or at least has a different modification time.
func (f *lockFile) ours() (bool, error) {
	if f.owned == nil {
		return false, nil
	}
	current, err := os.Lstat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "unable to query lock file")
	}
	return os.SameFile(f.owned, current) && f.owned.ModTime().Equal(current.ModTime()), nil
}

// removeIfStale removes the lock file if it is older than the expiration age,
// returning whether or not it was removed.
func (f *lockFile) removeIfStale() bool {
	if f.expires < 0 {
		return false
	}
	info, err := os.Lstat(f.path)
	if err != nil {
		return false
	}
	now := f.clock.Now()
	if now.Sub(info.ModTime()) <= f.expires {
		return false
	}
	f.logger.Warnf("removing expired lock file %s (created %s)",
		f.path, humanize.RelTime(info.ModTime(), now, "ago", "from now"),
	)
	return f.discard(info)
}

// discard removes the expired lock file described by stale. The file is first
// moved aside under a unique name so that a fresh lock file created by another
// locker since stale was observed is never removed. If the moved file turns
// out to be a different one, it's restored.
func (f *lockFile) discard(stale os.FileInfo) bool {
	aside := f.path + ".expired." + uuid.NewString()
	if err := os.Rename(f.path, aside); err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warnf("unable to remove expired lock file %s: %v", f.path, err)
		}
		return false
	}
	moved, err := os.Lstat(aside)
	if err != nil {
		f.logger.Warnf("unable to query expired lock file %s: %v", aside, err)
		return false
	}
	if !os.SameFile(stale, moved) {
		f.logger.Warnf("lock file %s was replaced before expiry, restoring it", f.path)
		if err := os.Link(aside, f.path); err != nil {
			f.logger.Errorf("unable to restore lock file %s: %v", f.path, err)
		}
		must.OSRemove(aside, f.logger)
		return false
	}
	must.OSRemove(aside, f.logger)
	return true
}

// release removes the lock file if it's still ours. A lock file that was
// expired and taken over by another locker is left in place.
func (f *lockFile) release() error {
	defer func() {
		f.owned = nil
	}()
	if ours, err := f.ours(); err != nil {
		return err
	} else if !ours {
		f.logger.Warnf("lock file %s taken over by another locker, leaving it in place", f.path)
		return nil
	}
	if err := os.Remove(f.path); err != nil {
		return errors.Wrap(err, "unable to remove lock file")
	}
	return nil
}

// probe reports whether or not the lock file exists. Expired lock files are
// reported as available since the next acquisition will remove them.
func (f *lockFile) probe() ProbeResult {
	info, err := os.Lstat(f.path)
	if err == nil {
		if f.expires >= 0 && f.clock.Now().Sub(info.ModTime()) > f.expires {
			return ProbeAvailable
		}
		return ProbeHeld
	} else if os.IsNotExist(err) {
		return ProbeAvailable
	}
	f.logger.Errorf("cannot inspect lock file %s: %v", f.path, err)
	return ProbeFailed
}

// ownerRecord is the content written to lock files. It identifies the owning
// process for humans inspecting a stuck lock.
func ownerRecord() []byte {
	host, _ := os.Hostname()
	return []byte(fmt.Sprintf("%d %s\n", os.Getpid(), host))
}

// dotLockStrategy implements lock file locking using exclusive creation.
type dotLockStrategy struct {
	lockFile
}

// newDotLockStrategy creates a new dotlock strategy.
func newDotLockStrategy(lockPath string, expires time.Duration, clk clock.Clock, logger *logging.Logger) strategy {
	return &dotLockStrategy{lockFile{
		path:    lockPath,
		expires: expires,
		clock:   clk,
		logger:  logger,
	}}
}

func (s *dotLockStrategy) open() error {
	return nil
}

// create performs a single exclusive creation of the lock file.
func (s *dotLockStrategy) create() error {
	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return errContended
		}
		return errors.Wrap(err, "unable to create lock file")
	}
	if _, err := file.Write(ownerRecord()); err != nil {
		must.Close(file, s.logger)
		must.OSRemove(s.path, s.logger)
		return errors.Wrap(err, "unable to write lock file")
	}
	if err := file.Close(); err != nil {
		must.OSRemove(s.path, s.logger)
		return errors.Wrap(err, "unable to close lock file")
	}
	if err := s.claim(); err != nil {
		must.OSRemove(s.path, s.logger)
		return err
	}
	return nil
}

func (s *dotLockStrategy) attempt() error {
	err := s.create()
	if errors.Is(err, errContended) && s.removeIfStale() {
		return s.create()
	}
	return err
}

func (s *dotLockStrategy) abandon() {}
