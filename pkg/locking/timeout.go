package locking

import (
	"fmt"
	"strconv"
	"strings"
)

// Timeout is a lock acquisition timeout policy. A positive value is the
// maximum number of acquisition attempts, which are separated by one retry
// interval each. NoTimeout retries until the lock is acquired, a non-retryable
// error occurs, or the acquisition context is cancelled. The zero value selects
// DefaultTimeout.
type Timeout int

const (
	// NoTimeout indicates that acquisition should be retried indefinitely.
	NoTimeout Timeout = -1
	// DefaultTimeout is the attempt budget used when none is specified.
	DefaultTimeout Timeout = 10
)

// ParseTimeout parses a timeout specification, which is either a positive
// attempt count or one of "notimeout", "never", or "unlimited".
func ParseTimeout(text string) (Timeout, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "notimeout", "never", "unlimited":
		return NoTimeout, nil
	case "", "default":
		return DefaultTimeout, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid timeout specification: %s", text)
	}
	return Timeout(value), nil
}

// resolve returns the effective policy, mapping the zero value to
// DefaultTimeout.
func (t Timeout) resolve() Timeout {
	if t == 0 {
		return DefaultTimeout
	}
	return t
}

// Unlimited returns whether or not the policy retries indefinitely.
func (t Timeout) Unlimited() bool {
	return t.resolve() < 0
}

// Attempts returns the attempt budget of a bounded policy. It returns 0 for
// NoTimeout.
func (t Timeout) Attempts() int {
	if t.Unlimited() {
		return 0
	}
	return int(t.resolve())
}

// String implements fmt.Stringer.String and pflag.Value.String.
func (t Timeout) String() string {
	if t.Unlimited() {
		return "notimeout"
	}
	return strconv.Itoa(t.Attempts())
}

// Set implements pflag.Value.Set.
func (t *Timeout) Set(text string) error {
	value, err := ParseTimeout(text)
	if err != nil {
		return err
	}
	*t = value
	return nil
}

// Type implements pflag.Value.Type.
func (t *Timeout) Type() string {
	return "timeout"
}

// UnmarshalText implements the text unmarshalling interface used when loading
// from YAML files.
func (t *Timeout) UnmarshalText(textBytes []byte) error {
	return t.Set(string(textBytes))
}
