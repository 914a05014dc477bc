package dispatch

import (
	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/session"
)

func registerTransactionCommands(d *Dispatcher) {
	d.Register(&Command{Name: "multi", Group: "transaction", Tags: TagFast, MinArgs: 0,
		Queueable: false, Handler: cmdMulti})
	d.Register(&Command{Name: "exec", Group: "transaction", Tags: 0, MinArgs: 0,
		Queueable: false, Handler: cmdExec})
	d.Register(&Command{Name: "discard", Group: "transaction", Tags: TagFast, MinArgs: 0,
		Queueable: false, Handler: cmdDiscard})
	d.Register(&Command{Name: "watch", Group: "transaction", Tags: TagFast, MinArgs: -1,
		KeyStart: 1, KeyStop: 0, KeyStep: 1, Queueable: false, Handler: cmdWatch})
	d.Register(&Command{Name: "unwatch", Group: "transaction", Tags: TagFast, MinArgs: 0,
		Queueable: false, Handler: cmdUnwatch})
}

func cmdMulti(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if !ctx.Conn.Multi() {
		return kvvalue.Err(kvvalue.ErrGeneric, "MULTI calls can not be nested")
	}
	return kvvalue.OK()
}

func cmdDiscard(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if !ctx.Conn.Discard() {
		return kvvalue.Err(kvvalue.ErrGeneric, "DISCARD without MULTI")
	}
	return kvvalue.OK()
}

func cmdWatch(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if ctx.Conn.State() != session.StateNormal {
		return kvvalue.Err(kvvalue.ErrGeneric, "WATCH inside MULTI is not allowed")
	}
	for _, a := range args {
		key := argString(a)
		ctx.Conn.Watch(key, ctx.DB.Version(key))
	}
	return kvvalue.OK()
}

func cmdUnwatch(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	ctx.Conn.Unwatch()
	return kvvalue.OK()
}

// cmdExec re-dispatches every queued command in order, matching EXEC's
// semantics in original_source's dispatcher/mod.rs: an EXEC whose WATCHed
// keys changed since the WATCH call aborts with a Null reply instead of
// running any queued command.
func cmdExec(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	cmds, watched, ok := ctx.Conn.BeginExec()
	if !ok {
		return kvvalue.Err(kvvalue.ErrGeneric, "EXEC without MULTI")
	}
	defer ctx.Conn.EndExec()

	// Dirty-check is pull-based: re-read each watched key's current version
	// rather than relying on a push notification from whichever connection
	// happened to perform the write, since that write may come from any
	// other client entirely (spec.md §4.4's watch-dirty semantics).
	for key, snapshot := range watched {
		if ctx.DB.Version(key) != snapshot {
			return kvvalue.Null()
		}
	}

	results := make([]kvvalue.Value, 0, len(cmds))
	for _, qc := range cmds {
		argv := make([]kvvalue.Value, 0, len(qc.Args)+1)
		argv = append(argv, kvvalue.Str(qc.Name))
		argv = append(argv, qc.Args...)
		results = append(results, ctx.Disp.Execute(ctx, argv))
	}
	return kvvalue.Arr(results...)
}
