package store

import (
	"sort"
	"sync"
	"time"
)

// expirationID mirrors ExpirationId((Instant, u64)) in expiration.rs: the
// expiry instant paired with a monotonic tiebreaker so two keys expiring at
// the same instant still sort deterministically and uniquely.
type expirationID struct {
	at       time.Time
	tiebreak uint64
}

func (a expirationID) less(b expirationID) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.tiebreak < b.tiebreak
}

// ExpirationIndex tracks which keys expire when, ordered so expired keys can
// be found and purged without scanning the whole keyspace. Grounded on
// expiration.rs's ExpirationDb: a BTreeMap<ExpirationId, key> plus a
// HashMap<key, ExpirationId> for O(log n) removal by key. Go has no builtin
// ordered map, so the ordered side is a sorted slice kept small by eager
// removal on every Add/Remove — the same tradeoff spec.md's Design Notes
// accept elsewhere for the sorted-set position cache.
type ExpirationIndex struct {
	mu      sync.Mutex
	byKey   map[string]expirationID
	ordered []orderedEntry
	nextID  uint64
}

type orderedEntry struct {
	id  expirationID
	key string
}

func NewExpirationIndex() *ExpirationIndex {
	return &ExpirationIndex{byKey: make(map[string]expirationID)}
}

// Add installs or replaces key's expiration instant.
func (x *ExpirationIndex) Add(key string, at time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(key)
	x.nextID++
	id := expirationID{at: at, tiebreak: x.nextID}
	x.byKey[key] = id
	idx := sort.Search(len(x.ordered), func(i int) bool { return !x.ordered[i].id.less(id) })
	x.ordered = append(x.ordered, orderedEntry{})
	copy(x.ordered[idx+1:], x.ordered[idx:])
	x.ordered[idx] = orderedEntry{id: id, key: key}
}

// Remove drops key's expiration tracking entirely (PERSIST / key deletion).
func (x *ExpirationIndex) Remove(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(key)
}

func (x *ExpirationIndex) removeLocked(key string) {
	id, ok := x.byKey[key]
	if !ok {
		return
	}
	delete(x.byKey, key)
	idx := sort.Search(len(x.ordered), func(i int) bool { return !x.ordered[i].id.less(id) })
	for idx < len(x.ordered) && x.ordered[idx].id != id {
		idx++
	}
	if idx < len(x.ordered) {
		x.ordered = append(x.ordered[:idx], x.ordered[idx+1:]...)
	}
}

// Expired returns, and removes from the index, every key whose expiration
// instant is at or before now — matching get_expired_keys in expiration.rs,
// which relies on BTreeMap iteration order and stops at the first
// not-yet-expired entry.
func (x *ExpirationIndex) Expired(now time.Time) []string {
	x.mu.Lock()
	defer x.mu.Unlock()

	cut := sort.Search(len(x.ordered), func(i int) bool {
		return x.ordered[i].id.at.After(now)
	})
	if cut == 0 {
		return nil
	}
	keys := make([]string, cut)
	for i := 0; i < cut; i++ {
		keys[i] = x.ordered[i].key
		delete(x.byKey, x.ordered[i].key)
	}
	x.ordered = x.ordered[cut:]
	return keys
}

// TTL returns the configured expiration for key, if any.
func (x *ExpirationIndex) TTL(key string) (time.Time, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.byKey[key]
	return id.at, ok
}
