package store

import "time"

// Databases holds the fixed-size array of numbered databases selected by the
// SELECT command, matching spec.md's Database/Databases split in §3. Count
// defaults to 16 (see DESIGN.md's Open Question #4 — spec.md's config table
// names the `databases` key without pinning a default).
type Databases struct {
	dbs []*Database
}

const DefaultDatabaseCount = 16

func NewDatabases(count, shardsPerDB int) *Databases {
	if count <= 0 {
		count = DefaultDatabaseCount
	}
	dbs := make([]*Database, count)
	for i := range dbs {
		dbs[i] = NewDatabase(shardsPerDB)
	}
	return &Databases{dbs: dbs}
}

func (d *Databases) Count() int { return len(d.dbs) }

// Get returns the database at index, or nil if out of range.
func (d *Databases) Get(index int) *Database {
	if index < 0 || index >= len(d.dbs) {
		return nil
	}
	return d.dbs[index]
}

// PurgeAll runs Database.Purge across every database, returning the total
// number of keys removed. Called by the background purger goroutine.
func (d *Databases) PurgeAll(now time.Time) int {
	total := 0
	for _, db := range d.dbs {
		total += db.Purge(now)
	}
	return total
}
