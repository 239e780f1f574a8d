package locking

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/folderlock/folderlock/pkg/logging"
)

// defaultMultiMethods are the methods combined by a multi locker when none are
// specified. Record locks and lock files don't interfere with each other on
// any platform, unlike flock and record locks on BSD systems.
var defaultMultiMethods = []Method{MethodPOSIX, MethodDotLock}

// multiLocker combines several lockers on the same folder. The lock is held
// only while every constituent holds it.
type multiLocker struct {
	// lock serializes acquisition, release, and probing. It's held for the
	// full duration of an acquisition, including retry waits.
	lock sync.Mutex
	// filename is the protected folder path.
	filename string
	// lockers are the constituent lockers, in acquisition order.
	lockers []Locker
	// logger is the logger for multi-lock events.
	logger *logging.Logger
	// held indicates whether or not all constituents are held.
	// It's accessed atomically so that HasLock never waits on an acquisition.
	held atomic.Bool
}

// Name implements Locker.Name.
func (l *multiLocker) Name() Method {
	return MethodMulti
}

// Filename implements Locker.Filename.
func (l *multiLocker) Filename() string {
	return l.filename
}

// HasLock implements Locker.HasLock.
func (l *multiLocker) HasLock() bool {
	return l.held.Load()
}

// Lock implements Locker.Lock. Constituents are acquired in order, and if any
// of them fails, those already acquired are released in reverse order.
func (l *multiLocker) Lock(ctx context.Context) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.held.Load() {
		l.logger.Warnf("already locked: %s", l.filename)
		return true
	}

	for i, locker := range l.lockers {
		if !locker.Lock(ctx) {
			l.logger.Warnf("unable to lock %s with %s, rolling back", l.filename, locker.Name())
			for j := i - 1; j >= 0; j-- {
				l.lockers[j].Unlock()
			}
			return false
		}
	}
	l.held.Store(true)
	return true
}

// Unlock implements Locker.Unlock.
func (l *multiLocker) Unlock() {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.held.Load() {
		return
	}
	l.held.Store(false)
	for i := len(l.lockers) - 1; i >= 0; i-- {
		l.lockers[i].Unlock()
	}
}

// Probe implements Locker.Probe. The lock is available only if every
// constituent is available, and any failed probe makes the result
// indeterminate.
func (l *multiLocker) Probe() ProbeResult {
	l.lock.Lock()
	defer l.lock.Unlock()

	result := ProbeAvailable
	for _, locker := range l.lockers {
		switch locker.Probe() {
		case ProbeFailed:
			return ProbeFailed
		case ProbeHeld:
			result = ProbeHeld
		}
	}
	return result
}

// IsLocked implements Locker.IsLocked.
func (l *multiLocker) IsLocked() bool {
	return l.Probe() == ProbeAvailable
}
