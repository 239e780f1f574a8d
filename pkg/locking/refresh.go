package locking

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
)

// refresher is implemented by lockers and strategies that hold lock files
// subject to expiration.
type refresher interface {
	// refresh updates the modification time of held lock files.
	refresh() error
}

// refresh updates the lock file modification time to the current time. It
// fails without touching the file if the lock file has been taken over.
func (f *lockFile) refresh() error {
	if ours, err := f.ours(); err != nil {
		return err
	} else if !ours {
		return errors.Errorf("lock file %s taken over by another locker", f.path)
	}
	now := f.clock.Now()
	if err := os.Chtimes(f.path, now, now); err != nil {
		return errors.Wrap(err, "unable to update lock file modification time")
	}
	return f.claim()
}

func (l *strategyLocker) refresh() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.held.Load() {
		return nil
	}
	if r, ok := l.strategy.(refresher); ok {
		return r.refresh()
	}
	return nil
}

func (l *multiLocker) refresh() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.held.Load() {
		return nil
	}
	for _, locker := range l.lockers {
		if err := Refresh(locker); err != nil {
			return err
		}
	}
	return nil
}

// Refresh updates the modification time of any lock files held by the locker
// so that other lockers don't consider them expired. It has no effect if the
// locker doesn't hold its lock or doesn't use lock files.
func Refresh(locker Locker) error {
	if r, ok := locker.(refresher); ok {
		return r.refresh()
	}
	return nil
}

// RefreshInterval computes the interval at which held lock files should be
// refreshed for a given expiration age. It returns 0 if expiration is
// disabled.
func RefreshInterval(expires time.Duration) time.Duration {
	if expires < 0 {
		return 0
	} else if expires == 0 {
		expires = DefaultExpires
	}
	return expires / 3
}

// RefreshRegularly refreshes the locker's lock files at the specified interval.
// It is designed to be run as a background Goroutine while a lock is held for
// long periods. It will terminate when the provided context is cancelled. A
// non-positive interval disables refreshing.
func RefreshRegularly(ctx context.Context, locker Locker, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		return
	}

	// Create a ticker to regulate refreshing and defer its shutdown.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Loop and wait for the ticker or cancellation.
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Tracef("refreshing lock files for %s", locker.Filename())
			if err := Refresh(locker); err != nil {
				logger.Warn(errors.Wrapf(err, "unable to refresh lock on %s", locker.Filename()))
			}
		}
	}
}
