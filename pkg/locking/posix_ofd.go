//go:build linux

package locking

import (
	"golang.org/x/sys/unix"
)

// setLockCommand is the non-blocking record locking command. Open file
// description locks are owned by the descriptor rather than the process, so
// they conflict between descriptors within a single process and are unaffected
// by closing unrelated descriptors for the same file.
const setLockCommand = unix.F_OFD_SETLK
