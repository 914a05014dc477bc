package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

func TestSubscribeAndPublish(t *testing.T) {
	h := NewHub()
	sub := &Subscriber{ID: "conn1", Send: make(chan kvvalue.Value, 1)}
	h.Subscribe("news", sub)

	n := h.Publish("news", kvvalue.Str("hello"))
	require.Equal(t, 1, n)

	msg := <-sub.Send
	require.Equal(t, "hello", msg.Str)
}

func TestPublishNoSubscribers(t *testing.T) {
	h := NewHub()
	n := h.Publish("nobody-listening", kvvalue.Str("x"))
	require.Equal(t, 0, n)
}

func TestPatternSubscription(t *testing.T) {
	h := NewHub()
	sub := &Subscriber{ID: "conn1", Send: make(chan kvvalue.Value, 1)}
	require.NoError(t, h.PSubscribe("news.*", sub))

	n := h.Publish("news.sports", kvvalue.Str("goal"))
	require.Equal(t, 1, n)
	require.Equal(t, 1, h.NumPat())
}

func TestUnsubscribeAllOnDisconnect(t *testing.T) {
	h := NewHub()
	sub := &Subscriber{ID: "conn1", Send: make(chan kvvalue.Value, 1)}
	h.Subscribe("a", sub)
	h.Subscribe("b", sub)
	h.PSubscribe("c.*", sub)

	h.UnsubscribeAll("conn1")
	require.Equal(t, 0, h.NumSub("a"))
	require.Equal(t, 0, h.NumSub("b"))
	require.Equal(t, 0, h.NumPat())
}

func TestDeliverDoesNotBlockOnFullBuffer(t *testing.T) {
	h := NewHub()
	sub := &Subscriber{ID: "slow", Send: make(chan kvvalue.Value)} // unbuffered, nobody reading
	h.Subscribe("ch", sub)

	n := h.Publish("ch", kvvalue.Str("x"))
	require.Equal(t, 1, n, "the attempted delivery is counted; the blocked subscriber is skipped without blocking the publisher")
}
