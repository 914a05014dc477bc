package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpirationIndexOrdersByTime(t *testing.T) {
	x := NewExpirationIndex()
	now := time.Now()
	x.Add("late", now.Add(time.Hour))
	x.Add("early", now.Add(-time.Hour))
	x.Add("mid", now)

	expired := x.Expired(now.Add(time.Minute))
	require.Equal(t, []string{"early", "mid"}, expired)
}

func TestExpirationIndexRemove(t *testing.T) {
	x := NewExpirationIndex()
	now := time.Now()
	x.Add("key", now.Add(-time.Second))
	x.Remove("key")

	expired := x.Expired(now)
	require.Empty(t, expired)
}

func TestExpirationIndexReAddReplaces(t *testing.T) {
	x := NewExpirationIndex()
	now := time.Now()
	x.Add("key", now.Add(time.Hour))
	x.Add("key", now.Add(-time.Hour))

	expired := x.Expired(now)
	require.Equal(t, []string{"key"}, expired)
}
