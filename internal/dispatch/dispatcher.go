package dispatch

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/metrics"
	"github.com/adred-codev/kvdb/internal/pubsub"
	"github.com/adred-codev/kvdb/internal/rusage"
	"github.com/adred-codev/kvdb/internal/session"
	"github.com/adred-codev/kvdb/internal/store"
)

// Context is the per-call environment a HandlerFunc runs in: the selected
// database, the full database set (for SELECT/SWAPDB/introspection), the
// pub/sub hub, the issuing connection, and a hook back into the dispatcher
// for commands that recursively dispatch (EXEC).
type Context struct {
	DB      *store.Database
	DBs     *store.Databases
	Hub     *pubsub.Hub
	Conn    *session.Connection
	Disp    *Dispatcher
	Sampler *rusage.Sampler
	Logger  zerolog.Logger
}

// Dispatcher holds the static command table and executes commands against
// a Context, instrumenting every call the way Command.metrics() does in the
// original but through prometheus vectors keyed by command name.
type Dispatcher struct {
	table   map[string]*Command
	metrics *metrics.Registry
}

func New(reg *metrics.Registry) *Dispatcher {
	d := &Dispatcher{table: make(map[string]*Command), metrics: reg}
	registerAllCommands(d)
	return d
}

func (d *Dispatcher) Register(cmd *Command) {
	d.table[cmd.Name] = cmd
}

// Lookup returns the command table entry for name (case-insensitive).
func (d *Dispatcher) Lookup(name string) (*Command, bool) {
	c, ok := d.table[strings.ToLower(name)]
	return c, ok
}

// Execute runs one command: argv[0] is the command name, argv[1:] its
// arguments. WRONGARITY/unknown-command errors are returned as Value, never
// as a Go error, since every dispatch outcome is itself a wire reply.
func (d *Dispatcher) Execute(ctx *Context, argv []kvvalue.Value) kvvalue.Value {
	if len(argv) == 0 {
		return kvvalue.Err(kvvalue.ErrGeneric, "empty command")
	}
	nameBytes, ok := argv[0].AsBytes()
	if !ok {
		return kvvalue.Err(kvvalue.ErrGeneric, "invalid command name")
	}
	name := strings.ToLower(string(nameBytes))

	cmd, ok := d.Lookup(name)
	if !ok {
		return kvvalue.Err(kvvalue.ErrUnknownCmd, "'"+name+"'")
	}
	if !cmd.CheckNumArgs(len(argv) - 1) {
		return kvvalue.Err(kvvalue.ErrWrongArity, "for '"+name+"' command")
	}

	// Connection-mode gating per spec.md §4.4. Control commands (MULTI,
	// EXEC, DISCARD, WATCH, UNWATCH, RESET) always run directly, even while
	// a transaction is being queued, since they manipulate the queue itself
	// rather than being subject to it.
	if ctx.Conn != nil && !cmd.IsControl() {
		switch ctx.Conn.State() {
		case session.StateMulti:
			if !cmd.Queueable {
				return kvvalue.Err(kvvalue.ErrGeneric, "command not allowed inside a transaction: "+name)
			}
			ctx.Conn.Queue(session.QueuedCommand{Name: name, Args: argv[1:]})
			return kvvalue.Str("QUEUED")
		case session.StatePubsub:
			if !cmd.IsPubsubExecutable() {
				return kvvalue.Err(kvvalue.ErrGeneric,
					name+" is not allowed in subscribe context")
			}
		}
	}

	if d.metrics != nil {
		d.metrics.CommandHits.WithLabelValues(name).Inc()
		d.metrics.CommandInFlight.WithLabelValues(name).Inc()
		defer d.metrics.CommandInFlight.WithLabelValues(name).Dec()
		timer := time.Now()
		defer func() {
			d.metrics.CommandLatency.WithLabelValues(name).Observe(time.Since(timer).Seconds())
		}()
	}

	result := cmd.Handler(ctx, argv[1:])

	if result.Kind == kvvalue.KindError && d.metrics != nil {
		d.metrics.CommandErrors.WithLabelValues(name).Inc()
	}
	return result
}
