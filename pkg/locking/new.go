package locking

import (
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/logging"
)

// DefaultRetryInterval is the delay between acquisition attempts when none is
// specified.
const DefaultRetryInterval = time.Second

// Options are the construction parameters for a Locker.
type Options struct {
	// Method is the locking method. The default method is MethodPOSIX.
	Method Method
	// Filename is the path of the folder to protect. It is required.
	Filename string
	// LockFile overrides the lock file path used by the dotlock and NFS
	// methods. If empty, DotLockPath is used.
	LockFile string
	// Timeout is the acquisition timeout policy. The zero value selects
	// DefaultTimeout.
	Timeout Timeout
	// RetryInterval is the delay between acquisition attempts. A zero value
	// selects DefaultRetryInterval.
	RetryInterval time.Duration
	// Expires is the age after which lock files are considered stale and
	// removed. A zero value selects DefaultExpires and a negative value
	// disables expiration.
	Expires time.Duration
	// Methods are the methods combined by MethodMulti. If empty, a default
	// combination of record locks and lock files is used.
	Methods []Method
	// Clock is the time source for lock file staleness checks. If nil, the
	// system clock is used.
	Clock clock.Clock
	// Logger is the logger for locker events. It may be nil.
	Logger *logging.Logger
}

// NewLocker creates a new Locker. The Locker is returned in an unlocked state
// and no files are opened until the first call to Lock or Probe.
func NewLocker(options Options) (Locker, error) {
	// Validate and resolve options.
	if options.Filename == "" {
		return nil, errors.New("empty folder path")
	}
	method := options.Method.resolve()
	if !method.Supported() {
		return nil, errors.Errorf("unsupported locking method: %s", options.Method)
	}
	if options.Timeout < NoTimeout {
		return nil, errors.Errorf("invalid timeout: %d", options.Timeout)
	}
	timeout := options.Timeout.resolve()
	interval := options.RetryInterval
	if interval < 0 {
		return nil, errors.New("negative retry interval")
	} else if interval == 0 {
		interval = DefaultRetryInterval
	}
	expires := options.Expires
	if expires == 0 {
		expires = DefaultExpires
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.New()
	}
	lockPath := options.LockFile
	if lockPath == "" {
		lockPath = DotLockPath(options.Filename)
	}
	logger := options.Logger.Sublogger(method.String())

	// Handle the methods that don't use strategies.
	switch method {
	case MethodNone:
		return &noneLocker{filename: options.Filename, logger: logger}, nil
	case MethodMulti:
		methods := options.Methods
		if len(methods) == 0 {
			methods = defaultMultiMethods
		}
		lockers := make([]Locker, 0, len(methods))
		for _, m := range methods {
			if m.resolve() == MethodMulti {
				return nil, errors.New("multi locking method cannot be nested")
			}
			constituent := options
			constituent.Method = m
			constituent.Methods = nil
			constituent.Logger = logger
			locker, err := NewLocker(constituent)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to create %s locker", m.resolve())
			}
			lockers = append(lockers, locker)
		}
		return &multiLocker{
			filename: options.Filename,
			lockers:  lockers,
			logger:   logger,
		}, nil
	}

	// Create the strategy.
	var s strategy
	var err error
	switch method {
	case MethodPOSIX:
		s, err = newPOSIXStrategy(options.Filename, logger)
	case MethodDotLock:
		s = newDotLockStrategy(lockPath, expires, clk, logger)
	case MethodFlock:
		s = newFlockStrategy(options.Filename, logger)
	case MethodNFS:
		s, err = newNFSStrategy(lockPath, expires, clk, logger)
	}
	if err != nil {
		return nil, err
	}

	// Create the locker.
	return &strategyLocker{
		method:   method,
		filename: options.Filename,
		timeout:  timeout,
		interval: interval,
		strategy: s,
		logger:   logger,
	}, nil
}
