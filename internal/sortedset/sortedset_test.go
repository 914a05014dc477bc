package sortedset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertBasic(t *testing.T) {
	s := New()
	outcome, score := s.Insert(1, "a", Options{})
	require.Equal(t, Inserted, outcome)
	require.Equal(t, 1.0, score)
	require.Equal(t, 1, s.Len())

	outcome, score = s.Insert(2, "a", Options{})
	require.Equal(t, Updated, outcome)
	require.Equal(t, 2.0, score)

	outcome, _ = s.Insert(2, "a", Options{})
	require.Equal(t, NoOp, outcome)
}

func TestInsertNXXX(t *testing.T) {
	s := New()
	s.Insert(1, "a", Options{})

	outcome, _ := s.Insert(5, "a", Options{NX: true})
	require.Equal(t, NoOp, outcome)
	score, _ := s.Score("a")
	require.Equal(t, 1.0, score)

	outcome, _ = s.Insert(5, "b", Options{XX: true})
	require.Equal(t, NoOp, outcome)
	_, ok := s.Score("b")
	require.False(t, ok)
}

func TestInsertGTLT(t *testing.T) {
	s := New()
	s.Insert(5, "a", Options{})

	outcome, _ := s.Insert(3, "a", Options{GT: true})
	require.Equal(t, NoOp, outcome)

	outcome, score := s.Insert(10, "a", Options{GT: true})
	require.Equal(t, Updated, outcome)
	require.Equal(t, 10.0, score)

	outcome, _ = s.Insert(20, "a", Options{LT: true})
	require.Equal(t, NoOp, outcome)
}

func TestIncr(t *testing.T) {
	s := New()
	s.Insert(1, "a", Options{})
	_, score := s.Insert(4, "a", Options{Incr: true})
	require.Equal(t, 5.0, score)
}

func TestRankAndRangeByRank(t *testing.T) {
	s := New()
	s.Insert(3, "c", Options{})
	s.Insert(1, "a", Options{})
	s.Insert(2, "b", Options{})

	require.Equal(t, 0, s.Rank("a"))
	require.Equal(t, 1, s.Rank("b"))
	require.Equal(t, 2, s.Rank("c"))
	require.Equal(t, -1, s.Rank("missing"))

	vals := s.RangeByRank(0, -1)
	require.Len(t, vals, 3)
	require.Equal(t, "a", vals[0].Str)
	require.Equal(t, "c", vals[2].Str)
}

func TestRangeByScore(t *testing.T) {
	s := New()
	s.Insert(1, "a", Options{})
	s.Insert(2, "b", Options{})
	s.Insert(3, "c", Options{})

	vals := s.RangeByScore(Bound{Kind: Inclusive, Value: 2}, Bound{Kind: Unbounded})
	require.Len(t, vals, 2)
	require.Equal(t, "b", vals[0].Str)

	count := s.CountRange(Bound{Kind: Exclusive, Value: 1}, Bound{Kind: Exclusive, Value: 3})
	require.Equal(t, 1, count)
}

func TestRemove(t *testing.T) {
	s := New()
	s.Insert(1, "a", Options{})
	require.True(t, s.Remove("a"))
	require.False(t, s.Remove("a"))
	require.Equal(t, 0, s.Len())
}
