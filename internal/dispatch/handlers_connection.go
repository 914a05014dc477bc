package dispatch

import (
	"strings"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

func registerConnectionCommands(d *Dispatcher) {
	d.Register(&Command{Name: "ping", Group: "connection", Tags: TagFast | TagPubsub, MinArgs: -1,
		Queueable: false, Handler: cmdPing})
	d.Register(&Command{Name: "echo", Group: "connection", Tags: TagFast, MinArgs: 1,
		Queueable: true, Handler: cmdEcho})
	d.Register(&Command{Name: "select", Group: "connection", Tags: TagFast, MinArgs: 1,
		Queueable: true, Handler: cmdSelect})
	d.Register(&Command{Name: "client", Group: "connection", Tags: TagAdmin, MinArgs: -1,
		Queueable: false, Handler: cmdClient})
	d.Register(&Command{Name: "command", Group: "connection", Tags: TagFast, MinArgs: -1,
		Queueable: false, Handler: cmdCommand})
	d.Register(&Command{Name: "reset", Group: "connection", Tags: TagFast | TagPubsub | TagNoScript, MinArgs: 0,
		Queueable: false, Handler: cmdReset})
}

// cmdReset unwinds every piece of per-connection state spec.md §4.4 lets a
// client accumulate: it discards a pending transaction, clears the watch
// set, tears down pub/sub subscriptions, and returns to database 0 — the
// single escape hatch back to Normal state from any other state.
func cmdReset(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	ctx.Conn.Discard()
	ctx.Conn.Unwatch()
	for _, ch := range ctx.Conn.Channels() {
		ctx.Hub.Unsubscribe(ch, ctx.Conn.ID)
	}
	for _, p := range ctx.Conn.Patterns() {
		ctx.Hub.PUnsubscribe(p, ctx.Conn.ID)
	}
	ctx.Conn.ExitPubsubIfEmpty()
	ctx.Conn.SelectDB(0)
	ctx.Conn.SetName("")
	return kvvalue.Str("RESET")
}

func cmdPing(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args) == 0 {
		return kvvalue.Str("PONG")
	}
	return args[0]
}

func cmdEcho(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	return args[0]
}

func cmdSelect(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	idx, err := argInt(args[0])
	if err != nil {
		return notAnInt()
	}
	if int(idx) < 0 || int(idx) >= ctx.DBs.Count() {
		return kvvalue.Err(kvvalue.ErrGeneric, "DB index is out of range")
	}
	ctx.Conn.SelectDB(int(idx))
	return kvvalue.OK()
}

// cmdClient implements the CLIENT GETNAME/SETNAME/LIST/ID introspection
// subcommands recovered from original_source's cmd/connection.rs; CLIENT
// KILL/PAUSE/NO-EVICT and the other admin-only forms are out of scope per
// spec.md's Non-goals around clustering/replication control surfaces.
func cmdClient(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args) == 0 {
		return syntaxErr()
	}
	switch strings.ToUpper(argString(args[0])) {
	case "GETNAME":
		return kvvalue.Str(ctx.Conn.Name())
	case "SETNAME":
		if len(args) < 2 {
			return syntaxErr()
		}
		ctx.Conn.SetName(argString(args[1]))
		return kvvalue.OK()
	case "ID":
		return kvvalue.Str(ctx.Conn.ID)
	case "LIST":
		return kvvalue.Str("id=" + ctx.Conn.ID + " name=" + ctx.Conn.Name())
	}
	return kvvalue.Err(kvvalue.ErrGeneric, "unknown CLIENT subcommand")
}

// cmdCommand implements COMMAND COUNT/DOCS, enough to satisfy introspection
// tooling without reimplementing the full per-command documentation blob
// original_source ships.
func cmdCommand(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args) == 0 {
		names := make([]kvvalue.Value, 0, len(ctx.Disp.table))
		for name := range ctx.Disp.table {
			names = append(names, kvvalue.Str(name))
		}
		return kvvalue.Arr(names...)
	}
	switch strings.ToUpper(argString(args[0])) {
	case "COUNT":
		return kvvalue.Int(int64(len(ctx.Disp.table)))
	case "DOCS":
		out := make([]kvvalue.Value, 0, len(ctx.Disp.table)*2)
		for name, cmd := range ctx.Disp.table {
			out = append(out, kvvalue.Str(name), kvvalue.Str(cmd.Group))
		}
		return kvvalue.Arr(out...)
	}
	return kvvalue.Arr()
}
