package locking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
)

// errContended is returned by strategy attempts when the lock is currently held
// elsewhere. It is the only retryable attempt error.
var errContended = errors.New("lock held elsewhere")

// strategy is the primitive interface implemented by the OS-level locking
// mechanisms. It is driven by strategyLocker, which owns the held state, the
// retry loop, and all logging of acquisition failures.
type strategy interface {
	// open prepares resources for an acquisition. An error is fatal for the
	// acquisition and is not retried.
	open() error
	// attempt performs a single non-blocking acquisition attempt. It returns
	// nil on success, errContended if the lock is held elsewhere, and any other
	// error if acquisition can never succeed.
	attempt() error
	// abandon discards the resources prepared by open after a failed
	// acquisition.
	abandon()
	// release releases a held lock and its resources.
	release() error
	// probe performs a non-destructive availability probe.
	probe() ProbeResult
}

// strategyLocker implements Locker on top of a strategy.
type strategyLocker struct {
	// lock serializes acquisition, release, and probing. It's held for the
	// full duration of an acquisition, including retry waits.
	lock sync.Mutex
	// method is the method implemented by the strategy.
	method Method
	// filename is the protected folder path.
	filename string
	// timeout is the acquisition timeout policy.
	timeout Timeout
	// interval is the delay between acquisition attempts.
	interval time.Duration
	// strategy is the underlying locking mechanism.
	strategy strategy
	// logger is the logger for acquisition and release events.
	logger *logging.Logger
	// held indicates whether or not the lock is currently held.
	// It's accessed atomically so that HasLock never waits on an acquisition.
	held atomic.Bool
}

// Name implements Locker.Name.
func (l *strategyLocker) Name() Method {
	return l.method
}

// Filename implements Locker.Filename.
func (l *strategyLocker) Filename() string {
	return l.filename
}

// HasLock implements Locker.HasLock.
func (l *strategyLocker) HasLock() bool {
	return l.held.Load()
}

// Lock implements Locker.Lock.
func (l *strategyLocker) Lock(ctx context.Context) bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	// Re-locking is a no-op.
	if l.held.Load() {
		l.logger.Warnf("already locked: %s", l.filename)
		return true
	}

	// Don't start an acquisition that has already been abandoned.
	if ctx.Err() != nil {
		l.logger.Warnf("lock acquisition for %s cancelled before start", l.filename)
		return false
	}

	// Prepare the strategy. This isn't retried.
	if err := l.strategy.open(); err != nil {
		l.logger.Errorf("cannot open lock file %s: %v", l.filename, err)
		return false
	}

	// Run the acquisition loop.
	err := acquire(ctx, l.timeout, l.interval, l.strategy.attempt, func(err error, next time.Duration) {
		l.logger.Debugf("lock on %s contended, retrying in %v", l.filename, next)
	})
	if err == nil {
		l.held.Store(true)
		l.logger.Debugf("acquired lock on %s", l.filename)
		return true
	}

	// Clean up and report the failure.
	l.strategy.abandon()
	switch {
	case errors.Is(err, errContended):
		l.logger.Warnf("unable to lock %s: still held elsewhere after %d attempt(s)",
			l.filename, l.timeout.Attempts(),
		)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		l.logger.Warnf("lock acquisition for %s cancelled: %v", l.filename, err)
	default:
		l.logger.Errorf("will never acquire lock on %s: %v", l.filename, err)
	}
	return false
}

// Unlock implements Locker.Unlock.
func (l *strategyLocker) Unlock() {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.held.Load() {
		return
	}
	l.held.Store(false)
	if err := l.strategy.release(); err != nil {
		l.logger.Warnf("unable to release lock on %s: %v", l.filename, err)
	} else {
		l.logger.Debugf("released lock on %s", l.filename)
	}
}

// Probe implements Locker.Probe.
func (l *strategyLocker) Probe() ProbeResult {
	l.lock.Lock()
	defer l.lock.Unlock()

	// A lock that we hold is not available to anyone else, and probing it
	// through a second descriptor could disturb it on platforms where record
	// locks are owned by the process.
	if l.held.Load() {
		return ProbeHeld
	}
	return l.strategy.probe()
}

// IsLocked implements Locker.IsLocked.
func (l *strategyLocker) IsLocked() bool {
	return l.Probe() == ProbeAvailable
}

// acquire runs attempt until it succeeds, returns a non-retryable error, the
// timeout policy is exhausted, or the context is cancelled. A bounded policy of
// N attempts waits at most N-1 intervals. On exhaustion it returns
// errContended, on cancellation the context's error, and otherwise the
// non-retryable error. The notify callback is invoked before each wait.
func acquire(ctx context.Context, timeout Timeout, interval time.Duration, attempt func() error, notify backoff.Notify) error {
	// Create the retry policy.
	var policy backoff.BackOff = backoff.NewConstantBackOff(interval)
	if !timeout.Unlimited() {
		policy = backoff.WithMaxRetries(policy, uint64(timeout.Attempts()-1))
	}

	// Run the attempts, marking everything except contention as permanent.
	return backoff.RetryNotify(func() error {
		if err := attempt(); err != nil {
			if errors.Is(err, errContended) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(policy, ctx), notify)
}
