package locking

import (
	"context"
)

// ProbeResult is the outcome of a lock availability probe.
type ProbeResult uint8

const (
	// ProbeAvailable indicates that the lock could be acquired at the time of
	// the probe.
	ProbeAvailable ProbeResult = iota
	// ProbeHeld indicates that the lock is held, either elsewhere or by the
	// probing Locker itself.
	ProbeHeld
	// ProbeFailed indicates that the probe could not be performed, for example
	// because the target could not be opened. The lock may or may not be held.
	ProbeFailed
)

// String provides a human-readable representation of a probe result.
func (r ProbeResult) String() string {
	switch r {
	case ProbeAvailable:
		return "available"
	case ProbeHeld:
		return "held"
	case ProbeFailed:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Locker is the interface implemented by all folder locking strategies.
type Locker interface {
	// Name returns the locking method implemented by the Locker.
	Name() Method
	// Filename returns the path of the folder protected by the Locker.
	Filename() string
	// Lock attempts to acquire the lock, retrying on contention until the
	// Locker's timeout policy is exhausted or the context is cancelled. If the
	// Locker already holds the lock, a warning is logged and Lock returns true
	// without touching the lock. Failure reasons are only reported through the
	// Locker's logger.
	Lock(ctx context.Context) bool
	// Unlock releases the lock if it is held. It always clears the held state
	// and never fails; release errors are logged. Unlock, Probe, and IsLocked
	// wait for any acquisition in progress on the same Locker to finish.
	Unlock()
	// IsLocked performs a non-destructive availability probe and returns true
	// only if the lock could have been acquired at the time of the call. A
	// false result conflates a lock held elsewhere with a probe that could not
	// be performed, so it must not be treated as proof of either. Callers that
	// need to distinguish the two should use Probe.
	IsLocked() bool
	// Probe performs a non-destructive availability probe with a three-state
	// result.
	Probe() ProbeResult
	// HasLock returns whether or not the Locker currently holds the lock. It
	// never blocks, even while an acquisition is in progress.
	HasLock() bool
}
