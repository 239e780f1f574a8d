package locking

import (
	"context"
	"sync"

	"github.com/folderlock/folderlock/pkg/logging"
)

// noneLocker performs no locking. It tracks held state so that it honors the
// Locker contract, but never excludes anyone.
type noneLocker struct {
	// lock serializes operations on the locker.
	lock sync.Mutex
	// filename is the nominally protected folder path.
	filename string
	// logger is the logger for locker events.
	logger *logging.Logger
	// held indicates whether or not the lock is nominally held.
	held bool
}

// Name implements Locker.Name.
func (l *noneLocker) Name() Method {
	return MethodNone
}

// Filename implements Locker.Filename.
func (l *noneLocker) Filename() string {
	return l.filename
}

// HasLock implements Locker.HasLock.
func (l *noneLocker) HasLock() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.held
}

// Lock implements Locker.Lock. It always succeeds.
func (l *noneLocker) Lock(_ context.Context) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.held {
		l.logger.Warnf("already locked: %s", l.filename)
	}
	l.held = true
	return true
}

// Unlock implements Locker.Unlock.
func (l *noneLocker) Unlock() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.held = false
}

// Probe implements Locker.Probe. It always reports availability.
func (l *noneLocker) Probe() ProbeResult {
	return ProbeAvailable
}

// IsLocked implements Locker.IsLocked.
func (l *noneLocker) IsLocked() bool {
	return true
}
