package store

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

// DefaultShardCount matches spec.md §4.2's default of 1000 shards.
const DefaultShardCount = 1000

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Database is one sharded, expiration-aware keyspace (one of the N
// databases selected by SELECT). Keys are distributed across shards by
// xxhash(key) % shardCount, each shard behind its own RWMutex, so unrelated
// keys never contend — the concurrency model spec.md §5 requires.
type Database struct {
	shards     []*shard
	expiration *ExpirationIndex
}

func NewDatabase(shardCount int) *Database {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return &Database{shards: shards, expiration: NewExpirationIndex()}
}

func (d *Database) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return d.shards[h%uint64(len(d.shards))]
}

// Get returns the entry for key if present and not expired.
func (d *Database) Get(key string) (*Entry, bool) {
	s := d.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.Valid(time.Now()) {
		return nil, false
	}
	return e, true
}

// WithValue runs onPresent(entry) if key holds a live value, otherwise
// onAbsent(). Both run with the shard's write lock held so handlers can
// safely mutate the entry's container value in place; this is the Go
// analogue of the Rust map_mut/unwrap_or_else combinator used throughout
// sorted_set.rs's handlers.
func (d *Database) WithValue(key string, onPresent func(*Entry) kvvalue.Value, onAbsent func() (*Entry, kvvalue.Value)) kvvalue.Value {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && e.Valid(time.Now()) {
		return onPresent(e)
	}
	if ok {
		delete(s.entries, key)
		d.expiration.Remove(key)
	}
	newEntry, result := onAbsent()
	if newEntry != nil {
		s.entries[key] = newEntry
	}
	return result
}

// Set stores v under key, replacing any previous value and clearing any TTL
// (matching SET's default semantics; callers needing KEEPTTL do a targeted
// ChangeValue through WithValue instead).
func (d *Database) Set(key string, v kvvalue.Value) {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = NewEntry(v)
	d.expiration.Remove(key)
}

// Del removes key, returning whether it was present (and live).
func (d *Database) Del(key string) bool {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	live := e.Valid(time.Now())
	delete(s.entries, key)
	d.expiration.Remove(key)
	return live
}

// Exists reports whether key holds a live value.
func (d *Database) Exists(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Expire installs an absolute TTL for key if it exists, returning whether it
// was applied.
func (d *Database) Expire(key string, at time.Time) bool {
	return d.ExpireWithPolicy(key, at, ExpireAlways)
}

// ExpirePolicy constrains when an EXPIRE/PEXPIRE update is allowed to take
// effect, matching spec.md §4.2's expire(key, duration) option set: NX only
// when no TTL is set, XX only when one already is, GT/LT only when the new
// instant is strictly later/earlier than the current one. A key with no
// current TTL is treated as +Inf for GT/LT comparisons.
type ExpirePolicy int

const (
	ExpireAlways ExpirePolicy = iota
	ExpireNX
	ExpireXX
	ExpireGT
	ExpireLT
)

// ExpireWithPolicy installs an absolute TTL for key if it exists and policy
// permits the update, returning whether it was applied.
func (d *Database) ExpireWithPolicy(key string, at time.Time, policy ExpirePolicy) bool {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.Valid(time.Now()) {
		return false
	}
	switch policy {
	case ExpireNX:
		if e.Expiration != nil {
			return false
		}
	case ExpireXX:
		if e.Expiration == nil {
			return false
		}
	case ExpireGT:
		if e.Expiration == nil {
			return false
		}
		if !at.After(*e.Expiration) {
			return false
		}
	case ExpireLT:
		if e.Expiration != nil && !at.Before(*e.Expiration) {
			return false
		}
	}
	e.SetTTL(at)
	d.expiration.Add(key, at)
	return true
}

// Persist clears key's TTL, returning whether one was present.
func (d *Database) Persist(key string) bool {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.Valid(time.Now()) {
		return false
	}
	had := e.Persist()
	if had {
		d.expiration.Remove(key)
	}
	return had
}

// TTL returns the remaining time to live for key: (-2) if absent, (-1) if no
// TTL is set, otherwise the remaining duration.
func (d *Database) TTL(key string) time.Duration {
	s := d.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !e.Valid(time.Now()) {
		return -2 * time.Second
	}
	ttl, has := e.TTL(time.Now())
	if !has {
		return -1 * time.Second
	}
	return ttl
}

// BumpVersion stamps key's entry with a fresh version without changing its
// value, so that a WATCH on the key sees it as modified even though its
// value was not replaced wholesale.
func (d *Database) BumpVersion(key string) {
	s := d.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.BumpVersion()
	}
}

// Version returns the current version of key's entry, or 0 if absent — used
// by WATCH to snapshot versions at watch-time for later comparison.
func (d *Database) Version(key string) uint64 {
	s := d.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[key]; ok {
		return e.Version
	}
	return 0
}

// Purge drops every expired key found by the expiration index, returning how
// many were removed. Called by the background purger on a 5s cadence and
// safe to call concurrently with normal traffic: each removal takes the
// owning shard's lock individually rather than locking the whole database.
func (d *Database) Purge(now time.Time) int {
	keys := d.expiration.Expired(now)
	for _, key := range keys {
		s := d.shardFor(key)
		s.mu.Lock()
		if e, ok := s.entries[key]; ok && !e.Valid(now) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
	return len(keys)
}

// Keys returns every live key in the database. Used by KEYS/SCAN-adjacent
// introspection; intentionally not called on the hot path.
func (d *Database) Keys() []string {
	now := time.Now()
	var out []string
	for _, s := range d.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if e.Valid(now) {
				out = append(out, k)
			}
		}
		s.mu.RUnlock()
	}
	return out
}

// ScanCursor encodes progress through the shard array for SCAN-style
// incremental iteration: the index of the next shard to read. It survives
// concurrent mutation because each call reads whole shards, each under that
// shard's own lock, rather than holding a database-wide lock across calls.
type ScanCursor struct {
	ShardIndex int
}

// Scan returns the live keys of whole shards, starting at cursor, until at
// least count keys are collected or the shards run out, so it can return
// more than count keys. It also returns the cursor to resume from
// (ScanCursor{ShardIndex: len(shards)} once exhausted).
func (d *Database) Scan(cursor ScanCursor, count int) ([]string, ScanCursor) {
	if count <= 0 {
		count = 10
	}
	now := time.Now()
	out := make([]string, 0, count)
	idx := cursor.ShardIndex
	for idx < len(d.shards) && len(out) < count {
		s := d.shards[idx]
		s.mu.RLock()
		for k, e := range s.entries {
			if e.Valid(now) {
				out = append(out, k)
			}
		}
		s.mu.RUnlock()
		idx++
	}
	return out, ScanCursor{ShardIndex: idx}
}

// RandomKey returns an arbitrary live key, or ("", false) if the database is
// empty, matching RANDOMKEY's contract recovered from original_source's
// src/cmd/key.rs.
func (d *Database) RandomKey() (string, bool) {
	now := time.Now()
	for _, s := range d.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if e.Valid(now) {
				s.mu.RUnlock()
				return k, true
			}
		}
		s.mu.RUnlock()
	}
	return "", false
}

// Size returns the number of live keys across all shards.
func (d *Database) Size() int {
	now := time.Now()
	n := 0
	for _, s := range d.shards {
		s.mu.RLock()
		for _, e := range s.entries {
			if e.Valid(now) {
				n++
			}
		}
		s.mu.RUnlock()
	}
	return n
}

// FlushDB removes every key from the database.
func (d *Database) FlushDB() {
	for _, s := range d.shards {
		s.mu.Lock()
		s.entries = make(map[string]*Entry)
		s.mu.Unlock()
	}
}
