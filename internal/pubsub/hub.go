// Package pubsub implements the channel/pattern fan-out hub of spec.md
// §4.5, grounded on the subscription table in
// ws/internal/shared/connection.go's SubscriptionIndex, adapted from a
// single global index into per-channel and per-pattern tables so exact and
// glob subscribers can be queried independently. The teacher's
// copy-on-write snapshotting is not used (see Hub).
package pubsub

import (
	"sync"

	"github.com/gobwas/glob"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

// Subscriber is the delivery endpoint for one connection: a buffered
// channel the connection's write loop drains, matching the teacher's
// Client.send channel.
type Subscriber struct {
	ID   string
	Send chan kvvalue.Value
}

type patternSub struct {
	pattern string
	glob    glob.Glob
	subs    map[string]*Subscriber
}

// Hub tracks exact-channel and glob-pattern subscriptions and fans out
// published messages. A single RWMutex guards both tables; publish volume in
// a KV store's pub/sub workload is dominated by fan-out cost, not table
// contention, so the teacher's copy-on-write optimization (built for a
// high-frequency single global index) is not adopted here — see DESIGN.md.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Subscriber
	patterns map[string]*patternSub
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[string]*Subscriber),
		patterns: make(map[string]*patternSub),
	}
}

// Subscribe registers sub on channel.
func (h *Hub) Subscribe(channel string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[string]*Subscriber)
		h.channels[channel] = set
	}
	set[sub.ID] = sub
}

// Unsubscribe removes sub from channel. If channel becomes empty it is
// dropped from the table entirely so Channels() only reports active topics.
func (h *Hub) Unsubscribe(channel string, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(set, subID)
	if len(set) == 0 {
		delete(h.channels, channel)
	}
}

// PSubscribe registers sub on a glob pattern. A malformed pattern returns an
// error rather than panicking at publish time.
func (h *Hub) PSubscribe(pattern string, sub *Subscriber) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ps, ok := h.patterns[pattern]
	if !ok {
		ps = &patternSub{pattern: pattern, glob: g, subs: make(map[string]*Subscriber)}
		h.patterns[pattern] = ps
	}
	ps.subs[sub.ID] = sub
	return nil
}

func (h *Hub) PUnsubscribe(pattern string, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ps, ok := h.patterns[pattern]
	if !ok {
		return
	}
	delete(ps.subs, subID)
	if len(ps.subs) == 0 {
		delete(h.patterns, pattern)
	}
}

// UnsubscribeAll removes subID from every channel and pattern it was
// registered under, used on connection close.
func (h *Hub) UnsubscribeAll(subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, set := range h.channels {
		delete(set, subID)
		if len(set) == 0 {
			delete(h.channels, ch)
		}
	}
	for p, ps := range h.patterns {
		delete(ps.subs, subID)
		if len(ps.subs) == 0 {
			delete(h.patterns, p)
		}
	}
}

// Publish delivers msg to every exact and pattern subscriber of channel,
// returning the number of deliveries attempted — not acked, per spec.md
// §4.5. Delivery is a non-blocking send: a subscriber whose buffer is full
// still counts as an attempted delivery but is skipped rather than stalling
// the publisher, matching the teacher's slow-client handling philosophy in
// server.go's broadcast() (there it counts a "dropped broadcast" and may
// disconnect after repeated strikes; here the connection's own write loop,
// not the hub, owns that policy — see internal/session).
func (h *Hub) Publish(channel string, msg kvvalue.Value) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	if set, ok := h.channels[channel]; ok {
		for _, sub := range set {
			deliver(sub, msg)
			count++
		}
	}
	for _, ps := range h.patterns {
		if !ps.glob.Match(channel) {
			continue
		}
		for _, sub := range ps.subs {
			deliver(sub, msg)
			count++
		}
	}
	return count
}

func deliver(sub *Subscriber, msg kvvalue.Value) {
	select {
	case sub.Send <- msg:
	default:
	}
}

// NumSub returns how many subscribers are registered on channel.
func (h *Hub) NumSub(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// NumPat returns the total number of active patterns.
func (h *Hub) NumPat() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.patterns)
}

// Channels returns every channel name with at least one subscriber,
// optionally filtered by a glob pattern (empty pattern matches all).
func (h *Hub) Channels(pattern string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var matcher glob.Glob
	if pattern != "" {
		matcher, _ = glob.Compile(pattern)
	}
	out := make([]string, 0, len(h.channels))
	for ch := range h.channels {
		if matcher == nil || matcher.Match(ch) {
			out = append(out, ch)
		}
	}
	return out
}
