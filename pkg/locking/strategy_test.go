package locking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// stubStrategy is a scripted strategy for exercising strategyLocker.
type stubStrategy struct {
	openErr    error
	attemptErr error
	opens      int
	attempts   int
	abandons   int
	releases   int
	result     ProbeResult
}

func (s *stubStrategy) open() error {
	s.opens++
	return s.openErr
}

func (s *stubStrategy) attempt() error {
	s.attempts++
	return s.attemptErr
}

func (s *stubStrategy) abandon() {
	s.abandons++
}

func (s *stubStrategy) release() error {
	s.releases++
	return errors.New("release failed")
}

func (s *stubStrategy) probe() ProbeResult {
	return s.result
}

// newStubLocker wraps a stub strategy in a locker.
func newStubLocker(s *stubStrategy, timeout Timeout) (*strategyLocker, func() string) {
	logger, output := newTestLogger()
	return &strategyLocker{
		method:   MethodPOSIX,
		filename: "stub",
		timeout:  timeout,
		interval: testRetryInterval,
		strategy: s,
		logger:   logger,
	}, output.String
}

// TestAcquireBudget tests that a bounded policy performs exactly its attempt
// budget against a contended lock.
func TestAcquireBudget(t *testing.T) {
	attempts := 0
	err := acquire(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return errContended
	}, nil)
	if !errors.Is(err, errContended) {
		t.Error("unexpected exhaustion error:", err)
	}
	if attempts != 3 {
		t.Error("attempt count mismatch:", attempts, "!=", 3)
	}
}

// TestAcquireSingleAttempt tests that a budget of one never waits.
func TestAcquireSingleAttempt(t *testing.T) {
	start := time.Now()
	err := acquire(context.Background(), 1, time.Hour, func() error {
		return errContended
	}, nil)
	if !errors.Is(err, errContended) {
		t.Error("unexpected exhaustion error:", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Error("single attempt waited:", elapsed)
	}
}

// TestAcquireUnlimitedNonRetryable tests that an unlimited policy still stops
// at the first non-retryable error.
func TestAcquireUnlimitedNonRetryable(t *testing.T) {
	unsupported := errors.New("locking not supported")
	attempts := 0
	err := acquire(context.Background(), NoTimeout, time.Millisecond, func() error {
		attempts++
		return unsupported
	}, nil)
	if err != unsupported {
		t.Error("unexpected error:", err)
	}
	if attempts != 1 {
		t.Error("non-retryable error retried:", attempts)
	}
}

// TestAcquireCancellation tests that an unlimited policy stops on context
// cancellation.
func TestAcquireCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*testRetryInterval)
	defer cancel()
	err := acquire(ctx, NoTimeout, testRetryInterval, func() error {
		return errContended
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("unexpected cancellation error:", err)
	}
}

// TestAcquireEventualSuccess tests that contention followed by availability
// succeeds and notifies before each wait.
func TestAcquireEventualSuccess(t *testing.T) {
	attempts, notifications := 0, 0
	err := acquire(context.Background(), 5, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errContended
		}
		return nil
	}, func(error, time.Duration) {
		notifications++
	})
	if err != nil {
		t.Fatal("acquisition failed:", err)
	}
	if notifications != 2 {
		t.Error("notification count mismatch:", notifications, "!=", 2)
	}
}

// TestStrategyLockerNonRetryableUnlimited tests that a locker without a
// timeout fails immediately on a non-retryable error and cleans up.
func TestStrategyLockerNonRetryableUnlimited(t *testing.T) {
	stub := &stubStrategy{attemptErr: errors.New("operation not supported")}
	locker, output := newStubLocker(stub, NoTimeout)
	done := make(chan bool, 1)
	go func() {
		done <- locker.Lock(context.Background())
	}()
	select {
	case locked := <-done:
		if locked {
			t.Fatal("lock succeeded despite non-retryable error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("unlimited acquisition looped on non-retryable error")
	}
	if stub.attempts != 1 || stub.abandons != 1 {
		t.Error("unexpected strategy usage:", stub.attempts, stub.abandons)
	}
	if !strings.Contains(output(), "will never acquire lock") {
		t.Error("non-retryable failure not logged:", output())
	}
}

// TestStrategyLockerOpenFailure tests that open failures aren't retried.
func TestStrategyLockerOpenFailure(t *testing.T) {
	stub := &stubStrategy{openErr: errors.New("too many open files")}
	locker, output := newStubLocker(stub, NoTimeout)
	if locker.Lock(context.Background()) {
		t.Fatal("lock succeeded despite open failure")
	}
	if stub.attempts != 0 {
		t.Error("attempts made after open failure:", stub.attempts)
	}
	if !strings.Contains(output(), "cannot open lock file stub: too many open files") {
		t.Error("open failure not logged:", output())
	}
}

// TestStrategyLockerCancelledBeforeStart tests that an already cancelled
// context prevents any acquisition work.
func TestStrategyLockerCancelledBeforeStart(t *testing.T) {
	stub := &stubStrategy{}
	locker, _ := newStubLocker(stub, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if locker.Lock(ctx) {
		t.Fatal("lock succeeded with cancelled context")
	}
	if stub.opens != 0 {
		t.Error("strategy opened with cancelled context")
	}
}

// TestStrategyLockerReleaseFailure tests that release failures are logged but
// still clear the held state.
func TestStrategyLockerReleaseFailure(t *testing.T) {
	stub := &stubStrategy{result: ProbeAvailable}
	locker, output := newStubLocker(stub, 1)
	if !locker.Lock(context.Background()) {
		t.Fatal("unable to acquire lock")
	}
	locker.Unlock()
	if locker.HasLock() {
		t.Error("lock reported as held after failed release")
	}
	if !strings.Contains(output(), "unable to release lock on stub") {
		t.Error("release failure not logged:", output())
	}
	locker.Unlock()
	if stub.releases != 1 {
		t.Error("release count mismatch:", stub.releases, "!=", 1)
	}
	if !locker.IsLocked() {
		t.Error("available probe not reported")
	}
}
