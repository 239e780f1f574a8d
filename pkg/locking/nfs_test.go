//go:build !windows && !plan9

package locking

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestNFSCycle tests the lifecycle of an NFS locker and that it leaves no
// temporary files behind.
func TestNFSCycle(t *testing.T) {
	folder := newTestFolder(t)
	locker := newTestLocker(t, Options{Method: MethodNFS, Filename: folder})
	if !locker.Lock(context.Background()) {
		t.Fatal("unable to acquire lock")
	}

	// Only the folder and its lock file should exist.
	entries, err := os.ReadDir(filepath.Dir(folder))
	if err != nil {
		t.Fatal("unable to read folder directory:", err)
	} else if len(entries) != 2 {
		t.Error("unexpected directory contents while locked:", len(entries))
	}
	if _, err := os.Lstat(folder + ".lock"); err != nil {
		t.Error("lock file missing:", err)
	}

	locker.Unlock()
	entries, err = os.ReadDir(filepath.Dir(folder))
	if err != nil {
		t.Fatal("unable to read folder directory:", err)
	} else if len(entries) != 1 {
		t.Error("unexpected directory contents after release:", len(entries))
	}
}

// TestNFSMutualExclusion tests that NFS lockers exclude each other and that
// dotlock lockers respect NFS lock files.
func TestNFSMutualExclusion(t *testing.T) {
	folder := newTestFolder(t)
	first := newTestLocker(t, Options{Method: MethodNFS, Filename: folder})
	second := newTestLocker(t, Options{Method: MethodNFS, Filename: folder, Timeout: 2})
	dotlock := newTestLocker(t, Options{Method: MethodDotLock, Filename: folder, Timeout: 1})

	if !first.Lock(context.Background()) {
		t.Fatal("unable to acquire first lock")
	}
	if second.Lock(context.Background()) {
		t.Fatal("second lock acquired while first held")
	}
	if dotlock.Lock(context.Background()) {
		t.Fatal("dotlock acquired while NFS lock held")
	}
	if lockFromOtherProcess(t, MethodNFS, folder) {
		t.Error("other process acquired held lock")
	}
	first.Unlock()
	if !second.Lock(context.Background()) {
		t.Fatal("unable to acquire second lock after release")
	}
	second.Unlock()
}
