package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiQueueExec(t *testing.T) {
	c := New(context.Background())
	require.True(t, c.Multi())
	require.False(t, c.Multi(), "nested MULTI must be rejected")

	require.True(t, c.Queue(QueuedCommand{Name: "SET"}))
	cmds, watched, ok := c.BeginExec()
	require.True(t, ok)
	require.Empty(t, watched)
	require.Len(t, cmds, 1)

	c.EndExec()
	require.Equal(t, StateNormal, c.State())
}

func TestDiscard(t *testing.T) {
	c := New(context.Background())
	c.Multi()
	c.Queue(QueuedCommand{Name: "SET"})
	require.True(t, c.Discard())
	require.Equal(t, StateNormal, c.State())
}

// TestWatchSnapshot verifies BeginExec hands back the exact watch-time
// snapshot; the dispatcher (which owns database access) is responsible for
// comparing it against each key's live version to decide dirtiness, since
// the write that dirties a watch almost always comes from another
// connection entirely rather than this one.
func TestWatchSnapshot(t *testing.T) {
	c := New(context.Background())
	c.Watch("foo", 1)
	c.Multi()
	_, watched, ok := c.BeginExec()
	require.True(t, ok)
	require.Equal(t, map[string]uint64{"foo": 1}, watched)
}

func TestPubsubStateTransitions(t *testing.T) {
	c := New(context.Background())
	c.AddChannel("news")
	c.EnterPubsub()
	require.Equal(t, StatePubsub, c.State())

	c.RemoveChannel("news")
	c.ExitPubsubIfEmpty()
	require.Equal(t, StateNormal, c.State())
}

func TestCloseCancelsContext(t *testing.T) {
	c := New(context.Background())
	c.Close()
	select {
	case <-c.Context().Done():
	default:
		t.Fatal("expected context to be cancelled")
	}
}
