// Package locking provides the folder locking strategies used to guarantee that
// only one process (or cooperating set of processes) mutates a mail folder at a
// time. Every strategy implements the Locker interface and is selected at
// construction time by Method.
//
// The POSIX strategy uses kernel advisory record locks on a descriptor that is
// dedicated to locking and never used for folder content. On Linux these are
// open file description locks, so two lockers in the same process contend with
// each other just as lockers in different processes do. All locks provided by
// this package are advisory: they only exclude cooperating processes.
//
// Lockers are not safe for concurrent use by multiple Goroutines. Calls are
// serialized internally, but callers should not share a Locker between
// independent owners.
package locking
