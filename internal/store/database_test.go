package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

func TestSetGetDel(t *testing.T) {
	db := NewDatabase(16)
	db.Set("foo", kvvalue.Str("bar"))

	e, ok := db.Get("foo")
	require.True(t, ok)
	require.Equal(t, "bar", e.Value.Str)

	require.True(t, db.Del("foo"))
	_, ok = db.Get("foo")
	require.False(t, ok)
}

func TestExpireAndPurge(t *testing.T) {
	db := NewDatabase(16)
	db.Set("foo", kvvalue.Str("bar"))
	require.True(t, db.Expire("foo", time.Now().Add(-time.Second)))

	_, ok := db.Get("foo")
	require.False(t, ok, "expired keys must not be returned even before purge runs")

	n := db.Purge(time.Now())
	require.Equal(t, 1, n)
}

func TestPersistClearsTTL(t *testing.T) {
	db := NewDatabase(16)
	db.Set("foo", kvvalue.Str("bar"))
	db.Expire("foo", time.Now().Add(time.Hour))

	require.True(t, db.Persist("foo"))
	require.Equal(t, -1*time.Second, db.TTL("foo"))
}

func TestTTLSentinels(t *testing.T) {
	db := NewDatabase(16)
	require.Equal(t, -2*time.Second, db.TTL("missing"))

	db.Set("foo", kvvalue.Str("bar"))
	require.Equal(t, -1*time.Second, db.TTL("foo"))
}

func TestVersionBumpsOnChange(t *testing.T) {
	db := NewDatabase(16)
	db.Set("foo", kvvalue.Str("bar"))
	v1 := db.Version("foo")

	db.Set("foo", kvvalue.Str("baz"))
	v2 := db.Version("foo")
	require.Greater(t, v2, v1)
}

func TestWithValueCreatesOnAbsent(t *testing.T) {
	db := NewDatabase(16)
	result := db.WithValue("counter",
		func(e *Entry) kvvalue.Value {
			n, _ := e.Value.AsInt64()
			e.ChangeValue(kvvalue.Int(n + 1))
			return e.Value
		},
		func() (*Entry, kvvalue.Value) {
			e := NewEntry(kvvalue.Int(1))
			return e, e.Value
		},
	)
	require.Equal(t, int64(1), result.Int)

	result = db.WithValue("counter",
		func(e *Entry) kvvalue.Value {
			n, _ := e.Value.AsInt64()
			e.ChangeValue(kvvalue.Int(n + 1))
			return e.Value
		},
		func() (*Entry, kvvalue.Value) {
			e := NewEntry(kvvalue.Int(1))
			return e, e.Value
		},
	)
	require.Equal(t, int64(2), result.Int)
}

func TestScanCoversAllKeys(t *testing.T) {
	db := NewDatabase(4)
	for i := 0; i < 20; i++ {
		db.Set(string(rune('a'+i)), kvvalue.Int(int64(i)))
	}

	seen := map[string]bool{}
	cursor := ScanCursor{}
	for {
		keys, next := db.Scan(cursor, 3)
		for _, k := range keys {
			seen[k] = true
		}
		if next.ShardIndex >= 4 {
			break
		}
		cursor = next
	}
	require.Equal(t, 20, len(seen))
}
