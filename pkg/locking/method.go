package locking

import (
	"fmt"
	"strings"
)

// Method specifies a folder locking strategy.
type Method uint8

const (
	// MethodDefault represents an unspecified locking method. It resolves to
	// MethodPOSIX.
	MethodDefault Method = iota
	// MethodPOSIX uses kernel advisory record locks on the folder file.
	MethodPOSIX
	// MethodDotLock uses the existence of a lock file next to the folder.
	MethodDotLock
	// MethodFlock uses BSD-style whole-file locks on the folder file.
	MethodFlock
	// MethodNFS uses a lock file created through a hard link, which remains
	// atomic on NFS mounts where exclusive creation does not.
	MethodNFS
	// MethodMulti combines several other methods, all of which must succeed.
	MethodMulti
	// MethodNone performs no locking at all.
	MethodNone
)

// IsDefault indicates whether or not the method is MethodDefault.
func (m Method) IsDefault() bool {
	return m == MethodDefault
}

// resolve returns the effective method, mapping the default to MethodPOSIX.
func (m Method) resolve() Method {
	if m == MethodDefault {
		return MethodPOSIX
	}
	return m
}

// Supported indicates whether or not a particular method is a valid,
// non-default value.
func (m Method) Supported() bool {
	switch m {
	case MethodPOSIX, MethodDotLock, MethodFlock, MethodNFS, MethodMulti, MethodNone:
		return true
	default:
		return false
	}
}

// String provides a human-readable representation of a locking method.
func (m Method) String() string {
	switch m {
	case MethodDefault:
		return "default"
	case MethodPOSIX:
		return "posix"
	case MethodDotLock:
		return "dotlock"
	case MethodFlock:
		return "flock"
	case MethodNFS:
		return "nfs"
	case MethodMulti:
		return "multi"
	case MethodNone:
		return "none"
	default:
		return "unknown"
	}
}

// Set implements pflag.Value.Set. Method names are case-insensitive.
func (m *Method) Set(text string) error {
	switch strings.ToLower(text) {
	case "", "default":
		*m = MethodDefault
	case "posix", "fcntl":
		*m = MethodPOSIX
	case "dotlock", "dot":
		*m = MethodDotLock
	case "flock", "file":
		*m = MethodFlock
	case "nfs":
		*m = MethodNFS
	case "multi":
		*m = MethodMulti
	case "none", "nolock":
		*m = MethodNone
	default:
		return fmt.Errorf("unknown locking method specification: %s", text)
	}
	return nil
}

// Type implements pflag.Value.Type.
func (m *Method) Type() string {
	return "method"
}

// UnmarshalText implements the text unmarshalling interface used when loading
// from YAML files.
func (m *Method) UnmarshalText(textBytes []byte) error {
	return m.Set(string(textBytes))
}
