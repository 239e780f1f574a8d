// Package folder provides access to mail folder files whose mutations are
// serialized by a folder locker.
package folder

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/locking"
	"github.com/folderlock/folderlock/pkg/logging"
	"github.com/folderlock/folderlock/pkg/must"
)

var (
	// ErrNotLocked is returned when folder contents are accessed without the
	// folder lock being held.
	ErrNotLocked = errors.New("folder lock not held")
	// ErrLockFailed is returned when the folder lock can't be acquired.
	ErrLockFailed = errors.New("unable to lock folder")
)

// Folder is a mail folder file guarded by a Locker. Contents are accessed
// through a descriptor that is separate from any descriptor used for locking.
// Folder is not safe for concurrent usage.
type Folder struct {
	// path is the folder path.
	path string
	// locker is the folder locker.
	locker locking.Locker
	// logger is the folder logger.
	logger *logging.Logger
	// file is the content descriptor.
	file *os.File
}

// Open opens the folder at the specified path, creating it if necessary. The
// locker must target the same path. The folder is returned unlocked.
func Open(path string, locker locking.Locker, logger *logging.Logger) (*Folder, error) {
	// Validate the locker.
	if locker == nil {
		return nil, errors.New("nil locker")
	} else if locker.Filename() != path {
		return nil, errors.Errorf("locker targets %s instead of %s", locker.Filename(), path)
	}

	// Open the content descriptor.
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open folder")
	}

	// Success.
	return &Folder{
		path:   path,
		locker: locker,
		logger: logger,
		file:   file,
	}, nil
}

// Path returns the folder path.
func (f *Folder) Path() string {
	return f.path
}

// Lock acquires the folder lock. Acquiring an already held lock succeeds
// immediately.
func (f *Folder) Lock(ctx context.Context) error {
	if !f.locker.Lock(ctx) {
		return ErrLockFailed
	}
	return nil
}

// Unlock releases the folder lock if it's held.
func (f *Folder) Unlock() {
	f.locker.Unlock()
}

// Locked returns whether or not the folder lock is held.
func (f *Folder) Locked() bool {
	return f.locker.HasLock()
}

// ReadAll reads the entire folder. The folder lock must be held.
func (f *Folder) ReadAll() ([]byte, error) {
	// Verify that the lock is held.
	if !f.locker.HasLock() {
		return nil, ErrNotLocked
	}

	// Read from the start of the file.
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "unable to seek to start of folder")
	}
	contents, err := io.ReadAll(f.file)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read folder")
	}
	return contents, nil
}

// Append appends a message to the folder. If the folder lock isn't already
// held, it's acquired for the duration of the append.
func (f *Folder) Append(ctx context.Context, message []byte) error {
	return f.locked(ctx, func() error {
		if _, err := f.file.Write(message); err != nil {
			return errors.Wrap(err, "unable to append to folder")
		}
		return errors.Wrap(f.file.Sync(), "unable to sync folder")
	})
}

// Rewrite replaces the folder contents. If the folder lock isn't already held,
// it's acquired for the duration of the rewrite.
func (f *Folder) Rewrite(ctx context.Context, contents []byte) error {
	return f.locked(ctx, func() error {
		if err := f.file.Truncate(0); err != nil {
			return errors.Wrap(err, "unable to truncate folder")
		}
		if _, err := f.file.Write(contents); err != nil {
			return errors.Wrap(err, "unable to write folder")
		}
		return errors.Wrap(f.file.Sync(), "unable to sync folder")
	})
}

// locked runs a mutation with the folder lock held, acquiring and releasing it
// around the mutation when the caller doesn't already hold it.
func (f *Folder) locked(ctx context.Context, mutation func() error) error {
	if f.locker.HasLock() {
		return mutation()
	}
	if err := f.Lock(ctx); err != nil {
		return err
	}
	defer f.locker.Unlock()
	f.logger.Debugf("locked %s for modification", f.path)
	return mutation()
}

// Close releases the folder lock if it's held and then closes the content
// descriptor.
func (f *Folder) Close() error {
	f.locker.Unlock()
	if err := f.file.Close(); err != nil {
		return errors.Wrap(err, "unable to close folder")
	}
	return nil
}

// Snapshot opens the folder at the specified path, reads it with the lock
// held, and closes it again.
func Snapshot(ctx context.Context, path string, locker locking.Locker, logger *logging.Logger) ([]byte, error) {
	folder, err := Open(path, locker, logger)
	if err != nil {
		return nil, err
	}
	defer must.Close(folder, logger)
	if err := folder.Lock(ctx); err != nil {
		return nil, err
	}
	return folder.ReadAll()
}
