package locking

import (
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/folderlock/folderlock/pkg/encoding"
	"github.com/folderlock/folderlock/pkg/locking"
	"github.com/folderlock/folderlock/pkg/logging"
)

// Configuration represents a human-readable folder locking configuration,
// loadable from YAML.
type Configuration struct {
	// Method specifies the locking method.
	Method locking.Method `yaml:"method"`
	// LockFile overrides the lock file path used by lock file based methods.
	LockFile string `yaml:"lockFile"`
	// Timeout specifies the acquisition attempt budget. It may be a positive
	// integer or "notimeout".
	Timeout locking.Timeout `yaml:"timeout"`
	// RetryInterval specifies the delay between acquisition attempts.
	RetryInterval time.Duration `yaml:"retryInterval"`
	// Expires specifies the age after which lock files are considered stale.
	// A negative value disables expiration.
	Expires time.Duration `yaml:"expires"`
	// Methods specifies the methods combined by the multi method.
	Methods []locking.Method `yaml:"methods"`
	// LogLevel specifies the log level. If unset, the root logger's level is
	// used.
	LogLevel *logging.Level `yaml:"logLevel"`
}

// LoadConfiguration attempts to load a YAML-based locking configuration file
// from the specified path. It returns an empty configuration if the file does
// not exist.
func LoadConfiguration(path string) (*Configuration, error) {
	// Create the target configuration object.
	result := &Configuration{}

	// Attempt to load. A missing file just means defaults.
	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
		if os.IsNotExist(err) {
			return &Configuration{}, nil
		}
		return nil, errors.Wrap(err, "unable to load locking configuration")
	}

	// Success.
	return result, nil
}

// EnsureValid ensures that Configuration's invariants are respected.
func (c *Configuration) EnsureValid() error {
	// A nil configuration is not considered valid.
	if c == nil {
		return errors.New("nil configuration")
	}

	// Verify that the method is unspecified or supported.
	if !(c.Method.IsDefault() || c.Method.Supported()) {
		return errors.New("unknown or unsupported locking method")
	}

	// Verify the timeout. Parsing can't produce an invalid value, but direct
	// construction can.
	if c.Timeout < locking.NoTimeout {
		return errors.Errorf("invalid timeout: %d", c.Timeout)
	}

	// Verify the retry interval.
	if c.RetryInterval < 0 {
		return errors.New("negative retry interval")
	}

	// Verify the combined methods.
	if len(c.Methods) > 0 && c.Method != locking.MethodMulti {
		return errors.New("methods specified for non-multi locking method")
	}
	for _, m := range c.Methods {
		if !m.Supported() {
			return errors.New("unknown or unsupported combined locking method")
		} else if m == locking.MethodMulti {
			return errors.New("multi locking method cannot be nested")
		}
	}

	// Verify the log level.
	if c.LogLevel != nil && *c.LogLevel > logging.LevelTrace {
		return errors.New("unknown log level")
	}

	// Success.
	return nil
}

// MergeConfigurations merges two configurations of differing priorities. Both
// configurations must be non-nil.
func MergeConfigurations(lower, higher *Configuration) *Configuration {
	// Create the resulting configuration.
	result := &Configuration{}

	// Merge method.
	if !higher.Method.IsDefault() {
		result.Method = higher.Method
	} else {
		result.Method = lower.Method
	}

	// Merge lock file.
	if higher.LockFile != "" {
		result.LockFile = higher.LockFile
	} else {
		result.LockFile = lower.LockFile
	}

	// Merge timeout.
	if higher.Timeout != 0 {
		result.Timeout = higher.Timeout
	} else {
		result.Timeout = lower.Timeout
	}

	// Merge retry interval.
	if higher.RetryInterval != 0 {
		result.RetryInterval = higher.RetryInterval
	} else {
		result.RetryInterval = lower.RetryInterval
	}

	// Merge expiration.
	if higher.Expires != 0 {
		result.Expires = higher.Expires
	} else {
		result.Expires = lower.Expires
	}

	// Merge combined methods.
	if len(higher.Methods) > 0 {
		result.Methods = higher.Methods
	} else {
		result.Methods = lower.Methods
	}

	// Merge log level.
	if higher.LogLevel != nil {
		result.LogLevel = higher.LogLevel
	} else {
		result.LogLevel = lower.LogLevel
	}

	// Done.
	return result
}

// Options converts the configuration to locker options for the specified
// folder. It does not validate the configuration.
func (c *Configuration) Options(folder string, logger *logging.Logger) locking.Options {
	return locking.Options{
		Method:        c.Method,
		Filename:      folder,
		LockFile:      c.LockFile,
		Timeout:       c.Timeout,
		RetryInterval: c.RetryInterval,
		Expires:       c.Expires,
		Methods:       c.Methods,
		Logger:        logger,
	}
}
