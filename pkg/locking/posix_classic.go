//go:build !linux && !windows && !plan9

package locking

import (
	"golang.org/x/sys/unix"
)

// setLockCommand is the non-blocking record locking command. Classic record
// locks are owned by the process: they don't conflict between descriptors
// within one process, and closing any descriptor for the file drops them.
const setLockCommand = unix.F_SETLK
