package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	configuration "github.com/folderlock/folderlock/pkg/configuration/locking"
	"github.com/folderlock/folderlock/pkg/locking"
	"github.com/folderlock/folderlock/pkg/logging"
)

// lockerFlags stores the locking flags shared by commands that create
// lockers.
type lockerFlags struct {
	// method is the locking method.
	method locking.Method
	// timeout is the acquisition timeout policy.
	timeout locking.Timeout
	// retryInterval is the delay between acquisition attempts.
	retryInterval time.Duration
	// expires is the lock file expiration age.
	expires time.Duration
	// lockFile is the lock file path override.
	lockFile string
	// methods are the methods combined by the multi method.
	methods []string
}

// register registers the flags with a flag set.
func (f *lockerFlags) register(flags *pflag.FlagSet) {
	flags.VarP(&f.method, "method", "m", "Specify the locking method (posix|dotlock|flock|nfs|multi|none)")
	flags.VarP(&f.timeout, "timeout", "t", "Specify the number of acquisition attempts or \"notimeout\"")
	flags.DurationVar(&f.retryInterval, "retry-interval", 0, "Specify the delay between acquisition attempts")
	flags.DurationVar(&f.expires, "expires", 0, "Specify the age after which lock files are considered stale")
	flags.StringVar(&f.lockFile, "lock-file", "", "Specify the lock file path for lock file based methods")
	flags.StringSliceVar(&f.methods, "methods", nil, "Specify the methods combined by the multi method")
}

// configuration converts the flags to a locking configuration.
func (f *lockerFlags) configuration() (*configuration.Configuration, error) {
	// Parse combined methods.
	var methods []locking.Method
	for _, specification := range f.methods {
		var method locking.Method
		if err := method.Set(specification); err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	// Parse the log level.
	var level *logging.Level
	if rootConfiguration.logLevel != "" {
		l, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return nil, errors.Errorf("unknown log level: %s", rootConfiguration.logLevel)
		}
		level = &l
	}

	// Done.
	return &configuration.Configuration{
		Method:        f.method,
		LockFile:      f.lockFile,
		Timeout:       f.timeout,
		RetryInterval: f.retryInterval,
		Expires:       f.expires,
		Methods:       methods,
		LogLevel:      level,
	}, nil
}

// loadConfiguration computes the effective locking configuration by merging
// command line flags over the configuration file. It also creates the logger
// for the configured level.
func loadConfiguration(flags *lockerFlags) (*configuration.Configuration, *logging.Logger, error) {
	// Determine the configuration file path.
	path := rootConfiguration.configuration
	if path == "" {
		if p, err := configuration.ConfigurationPath(); err != nil {
			return nil, nil, errors.Wrap(err, "unable to compute configuration path")
		} else {
			path = p
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, nil, errors.Wrap(err, "unable to access configuration file")
	}

	// Load the configuration file.
	fileConfiguration, err := configuration.LoadConfiguration(path)
	if err != nil {
		return nil, nil, err
	}

	// Merge command line flags.
	flagConfiguration, err := flags.configuration()
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid command line flags")
	}
	merged := configuration.MergeConfigurations(fileConfiguration, flagConfiguration)
	if err := merged.EnsureValid(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid locking configuration")
	}

	// Create the logger.
	logger := logging.RootLogger
	if merged.LogLevel != nil {
		logger = logging.NewLogger(*merged.LogLevel, os.Stderr)
	}

	// Success.
	return merged, logger, nil
}

// newLocker creates a locker for a folder from the effective configuration.
func newLocker(flags *lockerFlags, folder string) (locking.Locker, *configuration.Configuration, *logging.Logger, error) {
	merged, logger, err := loadConfiguration(flags)
	if err != nil {
		return nil, nil, nil, err
	}
	locker, err := locking.NewLocker(merged.Options(folder, logger))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "unable to create locker")
	}
	return locker, merged, logger, nil
}
