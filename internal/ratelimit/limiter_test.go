package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowBurstThenThrottle(t *testing.T) {
	l := New(1, 2)
	require.True(t, l.Allow("conn1"))
	require.True(t, l.Allow("conn1"))
	require.False(t, l.Allow("conn1"), "burst exhausted, sustained rate is too low for an immediate third call")
}

func TestIndependentPerConnection(t *testing.T) {
	l := New(1, 1)
	require.True(t, l.Allow("a"))
	require.True(t, l.Allow("b"), "separate connections must not share a bucket")
}

func TestRemoveClearsState(t *testing.T) {
	l := New(1, 1)
	l.Allow("conn1")
	l.Remove("conn1")
	require.True(t, l.Allow("conn1"), "removing a connection resets its bucket")
}
