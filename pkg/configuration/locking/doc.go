// Package locking provides YAML configuration loading and validation for
// folder lockers.
package locking
