//go:build !windows && !plan9

package locking

import (
	"os"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/folderlock/folderlock/pkg/logging"
	"github.com/folderlock/folderlock/pkg/must"
)

// nfsStrategy implements lock file locking for NFS mounts, where exclusive
// creation is not atomic. A uniquely named temporary file is hard-linked to the
// lock file path and the lock is held if the temporary file's link count
// reaches two. The link call's own result isn't trusted because NFS may report
// failure for a link that succeeded.
type nfsStrategy struct {
	lockFile
}

// newNFSStrategy creates a new NFS lock file strategy.
func newNFSStrategy(lockPath string, expires time.Duration, clk clock.Clock, logger *logging.Logger) (strategy, error) {
	return &nfsStrategy{lockFile{
		path:    lockPath,
		expires: expires,
		clock:   clk,
		logger:  logger,
	}}, nil
}

func (s *nfsStrategy) open() error {
	return nil
}

// link performs a single link-based acquisition.
func (s *nfsStrategy) link() error {
	// Create the uniquely named temporary file and ensure its removal. Once the
	// link exists, the lock file keeps the inode alive.
	temporary := s.path + "." + uuid.NewString()
	file, err := os.OpenFile(temporary, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.Wrap(err, "unable to create temporary lock file")
	}
	defer must.OSRemove(temporary, s.logger)
	if _, err := file.Write(ownerRecord()); err != nil {
		must.Close(file, s.logger)
		return errors.Wrap(err, "unable to write temporary lock file")
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "unable to close temporary lock file")
	}

	// Link and verify the result through the link count.
	linkErr := os.Link(temporary, s.path)
	var metadata unix.Stat_t
	if err := unix.Stat(temporary, &metadata); err != nil {
		return errors.Wrap(err, "unable to query temporary lock file")
	}
	if uint64(metadata.Nlink) == 2 {
		return s.claim()
	}
	if linkErr != nil && !os.IsExist(linkErr) {
		return errors.Wrap(linkErr, "unable to link lock file")
	}
	return errContended
}

func (s *nfsStrategy) attempt() error {
	err := s.link()
	if errors.Is(err, errContended) && s.removeIfStale() {
		return s.link()
	}
	return err
}

func (s *nfsStrategy) abandon() {}
