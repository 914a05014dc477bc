// Package session implements the per-connection state machine of spec.md
// §4.4: the Normal/Multi/ExecutingTx/Pubsub states, transaction queuing and
// WATCH bookkeeping, and the subscription set a connection is currently
// part of. Grounded on _examples/original_source/src/connection.rs for the
// state semantics and on ws/internal/shared/connection.go's Client/
// SubscriptionSet for the Go shape (id, buffered outbound channel,
// thread-safe subscription set, closeOnce).
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

// State is the connection's position in the transaction/pubsub state
// machine, matching spec.md §4.4's {Normal, Multi, ExecutingTx, Pubsub}.
type State int32

const (
	StateNormal State = iota
	StateMulti
	StateExecutingTx
	StatePubsub
)

// QueuedCommand is one command captured between MULTI and EXEC/DISCARD.
type QueuedCommand struct {
	Name string
	Args []kvvalue.Value
}

// Connection holds everything about one client connection the dispatcher
// and server loop need: its transaction queue, WATCH snapshot, selected
// database index, and pub/sub subscription set. One Connection is created
// per accepted socket and discarded on close — never pooled, unlike the
// teacher's sync.Pool-backed ConnectionPool, because a KV protocol
// connection carries transaction/watch state that must not leak between
// distinct clients (see DESIGN.md for why ConnectionPool itself is not
// reused here).
type Connection struct {
	ID string

	mu       sync.Mutex
	state    State
	dbIndex  int
	name     string
	queue    []QueuedCommand
	watched  map[string]uint64 // key -> version snapshotted at WATCH time
	channels map[string]struct{}
	patterns map[string]struct{}

	Send chan kvvalue.Value

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a connection bound to parent; cancelling parent or calling
// Close tears down the connection's background state (blocking pops,
// pub/sub delivery).
func New(parent context.Context) *Connection {
	ctx, cancel := context.WithCancel(parent)
	return &Connection{
		ID:       uuid.NewString(),
		watched:  make(map[string]uint64),
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
		Send:     make(chan kvvalue.Value, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Connection) Context() context.Context { return c.ctx }

// Close cancels the connection's context, unblocking any in-progress
// blocking pop and signaling its write loop to stop.
func (c *Connection) Close() { c.cancel() }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) DBIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dbIndex
}

func (c *Connection) SelectDB(index int) {
	c.mu.Lock()
	c.dbIndex = index
	c.mu.Unlock()
}

func (c *Connection) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Connection) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Multi switches into transaction-queuing mode. Returns false if already in
// Multi state (MULTI calls do not nest).
func (c *Connection) Multi() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateMulti {
		return false
	}
	c.state = StateMulti
	c.queue = nil
	return true
}

// Queue appends cmd to the pending transaction, returning false if the
// connection is not currently in Multi state.
func (c *Connection) Queue(cmd QueuedCommand) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMulti {
		return false
	}
	c.queue = append(c.queue, cmd)
	return true
}

// Discard clears the pending transaction and returns to Normal state.
// Returns false if not in Multi state.
func (c *Connection) Discard() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMulti {
		return false
	}
	c.state = StateNormal
	c.queue = nil
	c.clearWatchLocked()
	return true
}

// BeginExec transitions Multi -> ExecutingTx and hands back the queued
// commands plus a snapshot of the watch set so the caller (the dispatcher,
// which has database access) can decide dirtiness by re-reading each
// watched key's current version. Returns ok=false if not in Multi state.
func (c *Connection) BeginExec() (cmds []QueuedCommand, watched map[string]uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateMulti {
		return nil, nil, false
	}
	c.state = StateExecutingTx
	cmds = c.queue
	watched = c.watched
	return cmds, watched, true
}

// EndExec returns to Normal state and clears transaction/watch bookkeeping.
func (c *Connection) EndExec() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateNormal
	c.queue = nil
	c.clearWatchLocked()
}

// Watch snapshots key's current version for later dirty-checking.
// version is supplied by the caller (the dispatcher, which has database
// access) rather than looked up here, keeping this package free of a store
// dependency.
func (c *Connection) Watch(key string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watched[key] = version
}

func (c *Connection) clearWatchLocked() {
	c.watched = make(map[string]uint64)
}

// Unwatch clears the watch set without touching transaction state.
func (c *Connection) Unwatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearWatchLocked()
}

// EnterPubsub / ExitPubsub track whether this connection is restricted to
// pub/sub-executable commands (spec.md §4.4's Pubsub state), entered when
// the first SUBSCRIBE/PSUBSCRIBE succeeds and exited once the last
// subscription is removed.
func (c *Connection) EnterPubsub() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateNormal {
		c.state = StatePubsub
	}
}

func (c *Connection) ExitPubsubIfEmpty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePubsub && len(c.channels) == 0 && len(c.patterns) == 0 {
		c.state = StateNormal
	}
}

func (c *Connection) AddChannel(ch string)    { c.mu.Lock(); c.channels[ch] = struct{}{}; c.mu.Unlock() }
func (c *Connection) RemoveChannel(ch string) { c.mu.Lock(); delete(c.channels, ch); c.mu.Unlock() }
func (c *Connection) AddPattern(p string)     { c.mu.Lock(); c.patterns[p] = struct{}{}; c.mu.Unlock() }
func (c *Connection) RemovePattern(p string)  { c.mu.Lock(); delete(c.patterns, p); c.mu.Unlock() }

func (c *Connection) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels) + len(c.patterns)
}

func (c *Connection) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	return out
}

func (c *Connection) Patterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.patterns))
	for p := range c.patterns {
		out = append(out, p)
	}
	return out
}
