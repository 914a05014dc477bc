// Package dispatch implements the command table and dispatcher of spec.md
// §4.3, grounded on
// _examples/original_source/src/dispatcher/command.rs (Command fields,
// get_keys, check_number_args) with per-command metrics wired the way
// ws/metrics.go wires per-concern CounterVec/GaugeVec/HistogramVec
// collectors instead of the Rust `metered` crate's per-struct derive.
package dispatch

import (
	"github.com/adred-codev/kvdb/internal/kvvalue"
)

// Tag mirrors the command flag strings in command.rs (tags []&str), kept as
// a bitmask in Go since flag membership checks are hot-path.
type Tag uint32

const (
	TagRead Tag = 1 << iota
	TagWrite
	TagAdmin
	TagFast
	TagPubsub
	TagNoScript
	TagRandom
	TagSortForScript
	TagDenyOOM
	TagLoading
	TagStale
	TagMayReplicate
	TagSkipMonitor
	TagSkipSlowlog
)

func (t Tag) Has(flag Tag) bool { return t&flag != 0 }

// HandlerFunc executes one command's semantics against ctx. It returns the
// reply Value (which the server encodes back to the wire).
type HandlerFunc func(ctx *Context, args []kvvalue.Value) kvvalue.Value

// Command is one dispatch table entry, a direct Go analogue of
// command.rs's Command struct.
type Command struct {
	Name      string
	Group     string
	Tags      Tag
	MinArgs   int // positive: exact count; negative: minimum (abs value)
	KeyStart  int
	KeyStop   int // <=0 means "len(args) + KeyStop" (negative offset from end)
	KeyStep   int
	Queueable bool
	Handler   HandlerFunc
}

// IsPubsubExecutable reports whether this command may run while a
// connection is restricted to the Pubsub state, matching
// is_pubsub_executable in command.rs.
func (c *Command) IsPubsubExecutable() bool {
	return c.Group == "pubsub" || c.Name == "ping" || c.Name == "reset"
}

// IsControl reports whether this command manages connection/transaction
// state itself (MULTI/EXEC/DISCARD/WATCH/UNWATCH/RESET) and therefore must
// never be captured into a queued transaction or blocked by Pubsub-state
// gating the way an ordinary command would be.
func (c *Command) IsControl() bool {
	return c.Group == "transaction" || c.Name == "reset"
}

// CheckNumArgs validates n (the argument count excluding the command name
// itself) against MinArgs, matching check_number_args's exact-vs-minimum
// split.
func (c *Command) CheckNumArgs(n int) bool {
	if c.MinArgs >= 0 {
		return n == c.MinArgs
	}
	want := c.MinArgs
	if want < 0 {
		want = -want
	}
	return n >= want
}

// GetKeys extracts the database keys referenced by args (the full command
// argv, args[0] being the command name), matching get_keys in command.rs.
func (c *Command) GetKeys(args []kvvalue.Value) []kvvalue.Value {
	if c.KeyStart == 0 {
		return nil
	}
	stop := c.KeyStop
	if stop <= 0 {
		stop = len(args) + stop
	}
	var out []kvvalue.Value
	for i := c.KeyStart; i <= stop; i += c.KeyStep {
		if i < 0 || i >= len(args) {
			continue
		}
		out = append(out, args[i])
	}
	return out
}
