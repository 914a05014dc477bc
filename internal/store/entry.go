// Package store implements the sharded, expiration-aware keyspace described
// in spec.md §4.2, grounded on _examples/original_source/src/db/{entry,
// expiration}.rs for Entry/TTL semantics and on the teacher's
// ws/internal/shared/connection.go ConnectionPool for the per-shard lock
// discipline.
package store

import (
	"sync/atomic"
	"time"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

var lastVersion uint64

// nextVersion returns a monotonically increasing version stamp, nanoseconds
// since the epoch as in entry.rs's new_version, with a CAS loop bumping past
// the previous call when two calls land on the same nanosecond — plain
// time.Now().UnixNano() is not guaranteed strictly increasing across rapid
// successive calls on every platform.
func nextVersion() uint64 {
	for {
		prev := atomic.LoadUint64(&lastVersion)
		now := uint64(time.Now().UnixNano())
		next := now
		if next <= prev {
			next = prev + 1
		}
		if atomic.CompareAndSwapUint64(&lastVersion, prev, next) {
			return next
		}
	}
}

// Entry is one keyspace slot: a value, a monotonic version bumped on every
// mutation, and an optional expiration instant. A key is "present" iff
// Expiration is nil or strictly in the future, matching entry.rs's
// is_valid().
type Entry struct {
	Value      kvvalue.Value
	Version    uint64
	Expiration *time.Time
}

// NewEntry wraps v with a fresh version stamp and no TTL.
func NewEntry(v kvvalue.Value) *Entry {
	return &Entry{Value: v, Version: nextVersion()}
}

// Valid reports whether the entry has not expired.
func (e *Entry) Valid(now time.Time) bool {
	if e == nil {
		return false
	}
	return e.Expiration == nil || e.Expiration.After(now)
}

// BumpVersion stamps a fresh version without touching the value or TTL,
// used after a handler mutates a container value in place (rather than
// replacing it via ChangeValue) so that WATCH sees the key as modified.
func (e *Entry) BumpVersion() { e.Version = nextVersion() }

// ChangeValue replaces the stored value and bumps the version. The TTL is
// left untouched, matching entry.rs's change_value (only set_ttl/persist
// touch Expiration).
func (e *Entry) ChangeValue(v kvvalue.Value) {
	e.Value = v
	e.BumpVersion()
}

// SetTTL installs an absolute expiration instant and bumps the version.
func (e *Entry) SetTTL(at time.Time) {
	e.Expiration = &at
	e.BumpVersion()
}

// Persist clears any TTL and bumps the version. Returns whether a TTL was
// actually present (PERSIST's return value semantics).
func (e *Entry) Persist() bool {
	had := e.Expiration != nil
	e.Expiration = nil
	if had {
		e.BumpVersion()
	}
	return had
}

// TTL returns the remaining time to live, or (0, false) if the key has no
// expiration set.
func (e *Entry) TTL(now time.Time) (time.Duration, bool) {
	if e.Expiration == nil {
		return 0, false
	}
	return e.Expiration.Sub(now), true
}

// isClonable mirrors entry.rs's is_clonable: every kind is clonable except
// the five container kinds (Array, Hash, List, Set, SortedSet), which give
// WRONGTYPE on COPY-style operations.
func isClonable(v kvvalue.Value) bool {
	switch v.Kind {
	case kvvalue.KindArray, kvvalue.KindHash, kvvalue.KindList, kvvalue.KindSet, kvvalue.KindSortedSet:
		return false
	}
	return true
}

// CloneValue returns a copy of the entry's value if it is a scalar kind, or
// a WRONGTYPE error value otherwise, matching entry.rs's clone_value.
func (e *Entry) CloneValue() kvvalue.Value {
	if !isClonable(e.Value) {
		return kvvalue.WrongType()
	}
	return e.Value
}
