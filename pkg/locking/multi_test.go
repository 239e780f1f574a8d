package locking

import (
	"context"
	"os"
	"testing"
)

// TestMultiCycle tests that a default multi locker acquires and releases all of
// its constituents.
func TestMultiCycle(t *testing.T) {
	folder := newTestFolder(t)
	locker := newTestLocker(t, Options{Method: MethodMulti, Filename: folder})
	if locker.Name() != MethodMulti {
		t.Error("locker reports incorrect method:", locker.Name())
	}
	if !locker.IsLocked() {
		t.Fatal("unlocked folder reported unavailable")
	}
	if !locker.Lock(context.Background()) {
		t.Fatal("unable to acquire lock")
	}
	if _, err := os.Lstat(folder + ".lock"); err != nil {
		t.Error("dotlock constituent not acquired:", err)
	}
	if lockFromOtherProcess(t, MethodPOSIX, folder) {
		t.Error("posix constituent not acquired")
	}
	locker.Unlock()
	if _, err := os.Lstat(folder + ".lock"); !os.IsNotExist(err) {
		t.Error("dotlock constituent not released")
	}
	if !lockFromOtherProcess(t, MethodPOSIX, folder) {
		t.Error("posix constituent not released")
	}
}

// TestMultiRollback tests that a partial acquisition is rolled back.
func TestMultiRollback(t *testing.T) {
	folder := newTestFolder(t)

	// Hold only the dotlock.
	dotlock := newTestLocker(t, Options{Method: MethodDotLock, Filename: folder})
	if !dotlock.Lock(context.Background()) {
		t.Fatal("unable to acquire dotlock")
	}
	defer dotlock.Unlock()

	// The multi locker acquires the record lock first and must drop it when
	// the dotlock fails.
	locker := newTestLocker(t, Options{
		Method:   MethodMulti,
		Filename: folder,
		Timeout:  1,
		Methods:  []Method{MethodPOSIX, MethodDotLock},
	})
	if locker.Lock(context.Background()) {
		t.Fatal("multi lock acquired while dotlock held")
	}
	if locker.HasLock() {
		t.Error("failed multi lock reports lock held")
	}
	if result := locker.Probe(); result != ProbeHeld {
		t.Error("probe with held constituent returned", result)
	}
	if !lockFromOtherProcess(t, MethodPOSIX, folder) {
		t.Error("record lock not rolled back")
	}
}

// TestMultiRejectsNesting tests that multi lockers can't contain multi
// lockers.
func TestMultiRejectsNesting(t *testing.T) {
	if _, err := NewLocker(Options{
		Method:   MethodMulti,
		Filename: newTestFolder(t),
		Methods:  []Method{MethodDotLock, MethodMulti},
	}); err == nil {
		t.Error("nested multi locker created")
	}
}
