// Package kvvalue implements the tagged value union stored in the keyspace
// and exchanged over the wire: blobs, numbers, containers and sentinels.
package kvvalue

import (
	"bytes"
	"math/big"
	"sort"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindOK
	KindBlob
	KindString
	KindInteger
	KindBigInteger
	KindFloat
	KindBoolean
	KindError
	KindArray
	KindHash
	KindList
	KindSet
	KindSortedSet
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindOK:
		return "ok"
	case KindBlob:
		return "blob"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBigInteger:
		return "big_integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindError:
		return "error"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "sorted_set"
	}
	return "unknown"
}

// ErrorKind classifies an Error value, matching the taxonomy in spec.md §7.
type ErrorKind string

const (
	ErrWrongType  ErrorKind = "WRONGTYPE"
	ErrGeneric    ErrorKind = "ERR"
	ErrSyntax     ErrorKind = "ERR syntax"
	ErrNotAnInt   ErrorKind = "ERR value is not an integer or out of range"
	ErrNotAFloat  ErrorKind = "ERR value is not a valid float"
	ErrNoSuchKey  ErrorKind = "ERR no such key"
	ErrWrongArity ErrorKind = "ERR wrong number of arguments"
	ErrUnknownCmd ErrorKind = "ERR unknown command"
	ErrNotANumber ErrorKind = "ERR value is not a number or out of range"
)

// ErrorValue carries a kind and a human-readable message, matching the Rust
// source's Error enum (src/error.rs): a prefix plus free-form text.
type ErrorValue struct {
	Kind    ErrorKind
	Message string
}

func (e ErrorValue) Error() string { return string(e.Kind) + " " + e.Message }

// Value is the tagged union stored in a Database and exchanged over the wire.
// Container kinds (Array/Hash/List/Set/SortedSet) carry a pointer to the
// backing structure; scalar kinds carry their payload directly to avoid an
// extra allocation/indirection on the hot get/set path.
type Value struct {
	Kind Kind

	Blob    Blob
	Str     string
	Int     int64
	BigInt  *big.Int
	Float   float64
	Bool    bool
	ErrVal  ErrorValue
	Array   []Value
	Hash    map[string]Value
	List    *List
	Set     map[string]struct{}
	ZSet    SortedSetContainer
}

// SortedSetContainer is implemented by internal/sortedset.Set; kept as an
// interface here so kvvalue does not import sortedset (which imports
// kvvalue's FloatOrd), avoiding an import cycle.
type SortedSetContainer interface {
	Len() int
}

// List is a slice-backed list by value, offering the original's
// VecDeque-style push/pop at both ends; PushLeft copies the slice, so it is
// O(n), while the right end is amortised O(1).
type List struct {
	items []Value
}

func NewList() *List { return &List{} }

func (l *List) PushLeft(v Value)  { l.items = append([]Value{v}, l.items...) }
func (l *List) PushRight(v Value) { l.items = append(l.items, v) }

func (l *List) PopLeft() (Value, bool) {
	if len(l.items) == 0 {
		return Value{}, false
	}
	v := l.items[0]
	l.items = l.items[1:]
	return v, true
}

func (l *List) PopRight() (Value, bool) {
	if len(l.items) == 0 {
		return Value{}, false
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	return v, true
}

func (l *List) Len() int { return len(l.items) }

func (l *List) Range(start, stop int) []Value {
	n := len(l.items)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start > stop || start >= n {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	out := make([]Value, stop-start+1)
	copy(out, l.items[start:stop+1])
	return out
}

func (l *List) Index(i int) (Value, bool) {
	n := len(l.items)
	i = normalizeIndex(i, n)
	if i < 0 || i >= n {
		return Value{}, false
	}
	return l.items[i], true
}

// Remove deletes up to |count| occurrences of target, matching Redis
// LREM's direction convention: count>0 scans head-to-tail, count<0 scans
// tail-to-head, count==0 removes every occurrence. Returns the number
// removed.
func (l *List) Remove(count int, target Value) int {
	wantBytes, _ := target.AsBytes()
	want := NewBlob(wantBytes)
	matches := func(v Value) bool {
		if v.Kind == KindBlob {
			return v.Blob.Equal(want)
		}
		got, ok := v.AsBytes()
		return ok && bytes.Equal(got, wantBytes)
	}

	removed := 0
	limit := count
	if limit < 0 {
		limit = -limit
	}
	within := func() bool { return count == 0 || removed < limit }

	if count >= 0 {
		out := l.items[:0:0]
		for _, v := range l.items {
			if within() && matches(v) {
				removed++
				continue
			}
			out = append(out, v)
		}
		l.items = out
		return removed
	}

	out := make([]Value, 0, len(l.items))
	for i := len(l.items) - 1; i >= 0; i-- {
		v := l.items[i]
		if within() && matches(v) {
			removed++
			continue
		}
		out = append(out, v)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	l.items = out
	return removed
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i = n + i
	}
	return i
}

// Constructors

func Null() Value                  { return Value{Kind: KindNull} }
func OK() Value                    { return Value{Kind: KindOK} }
func Str(s string) Value           { return Value{Kind: KindString, Str: s} }
func BlobVal(b []byte) Value       { return Value{Kind: KindBlob, Blob: NewBlob(b)} }
func Int(i int64) Value            { return Value{Kind: KindInteger, Int: i} }
func Float(f float64) Value        { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value            { return Value{Kind: KindBoolean, Bool: b} }
func BigInt(b *big.Int) Value      { return Value{Kind: KindBigInteger, BigInt: b} }
func Arr(vs ...Value) Value        { return Value{Kind: KindArray, Array: vs} }

func Err(kind ErrorKind, msg string) Value {
	return Value{Kind: KindError, ErrVal: ErrorValue{Kind: kind, Message: msg}}
}

func WrongType() Value {
	return Err(ErrWrongType, "Operation against a key holding the wrong kind of value")
}

// IsNil reports whether the value represents the absence of a key (Null).
func (v Value) IsNil() bool { return v.Kind == KindNull }

// AsBytes returns the byte representation of every kind TypeName reports as
// "string" (Blob/String plus the numeric kinds INCR/INCRBYFLOAT leave
// behind), matching the Rust bytes_to_number path plus the numeric-kind
// fallback original_source's value/mod.rs renders for GET-family commands on
// a counter key.
func (v Value) AsBytes() ([]byte, bool) {
	switch v.Kind {
	case KindBlob:
		return v.Blob.Bytes(), true
	case KindString:
		return []byte(v.Str), true
	case KindInteger:
		return []byte(strconv.FormatInt(v.Int, 10)), true
	case KindBigInteger:
		if v.BigInt == nil {
			return nil, false
		}
		return []byte(v.BigInt.String()), true
	case KindFloat:
		return []byte(strconv.FormatFloat(v.Float, 'g', -1, 64)), true
	}
	return nil, false
}

// AsInt64 coerces Integer/Blob/String kinds to an int64, matching
// TryFrom<&Value> for i64 in the original (src/value/mod.rs).
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindInteger:
		return v.Int, true
	case KindBlob, KindString:
		b, _ := v.AsBytes()
		n, err := strconv.ParseInt(string(b), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// AsFloat64 coerces Float/Integer/Blob/String kinds to a float64.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Float, true
	case KindInteger:
		return float64(v.Int), true
	case KindBlob, KindString:
		b, _ := v.AsBytes()
		f, err := strconv.ParseFloat(string(b), 64)
		return f, err == nil
	}
	return 0, false
}

// TypeName returns the TYPE style name for this value (see Encoding for the
// OBJECT ENCODING name).
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "none"
	case KindBlob, KindString:
		return "string"
	case KindInteger, KindBigInteger, KindFloat:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindSortedSet:
		return "zset"
	}
	return "string"
}

// Encoding returns the OBJECT ENCODING name for this value: the concrete
// in-memory representation backing its TypeName, matching original_source's
// convention of exposing encoding and type as separate introspection facts.
// Each kind has one fixed encoding, except Blob and String, which report
// "embstr" up to 44 bytes and "raw" above that.
func (v Value) Encoding() string {
	switch v.Kind {
	case KindNull:
		return "none"
	case KindInteger, KindBigInteger:
		return "int"
	case KindFloat:
		return "embstr"
	case KindBlob:
		if len(v.Blob.Bytes()) <= 44 {
			return "embstr"
		}
		return "raw"
	case KindString:
		if len(v.Str) <= 44 {
			return "embstr"
		}
		return "raw"
	case KindList:
		return "quicklist"
	case KindSet:
		return "hashtable"
	case KindHash:
		return "hashtable"
	case KindSortedSet:
		return "skiplist"
	}
	return "raw"
}

// SortedKeys is a small helper used by handlers that need deterministic
// iteration order over a Set/Hash for commands like SMEMBERS/HKEYS.
func SortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
