package dispatch

import (
	"strconv"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/store"
)

func registerStringCommands(d *Dispatcher) {
	d.Register(&Command{Name: "get", Group: "string", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdGet})
	d.Register(&Command{Name: "set", Group: "string", Tags: TagWrite | TagDenyOOM, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSet})
	d.Register(&Command{Name: "getset", Group: "string", Tags: TagWrite, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdGetSet})
	d.Register(&Command{Name: "append", Group: "string", Tags: TagWrite | TagDenyOOM, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdAppend})
	d.Register(&Command{Name: "strlen", Group: "string", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdStrlen})
	d.Register(&Command{Name: "incr", Group: "string", Tags: TagWrite | TagFast | TagDenyOOM, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdIncr})
	d.Register(&Command{Name: "decr", Group: "string", Tags: TagWrite | TagFast | TagDenyOOM, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdDecr})
	d.Register(&Command{Name: "incrby", Group: "string", Tags: TagWrite | TagFast | TagDenyOOM, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdIncrBy})
	d.Register(&Command{Name: "decrby", Group: "string", Tags: TagWrite | TagFast | TagDenyOOM, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdDecrBy})
	d.Register(&Command{Name: "incrbyfloat", Group: "string", Tags: TagWrite | TagDenyOOM, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdIncrByFloat})
	d.Register(&Command{Name: "mget", Group: "string", Tags: TagRead | TagFast, MinArgs: -1,
		KeyStart: 1, KeyStop: 0, KeyStep: 1, Queueable: true, Handler: cmdMGet})
	d.Register(&Command{Name: "mset", Group: "string", Tags: TagWrite | TagDenyOOM, MinArgs: -2,
		KeyStart: 1, KeyStop: -1, KeyStep: 2, Queueable: true, Handler: cmdMSet})
}

func cmdGet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	e, ok := ctx.DB.Get(key)
	if !ok {
		return kvvalue.Null()
	}
	b, ok := e.Value.AsBytes()
	if !ok {
		return wrongType()
	}
	return kvvalue.BlobVal(b)
}

func cmdSet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	ctx.DB.Set(key, args[1])
	return kvvalue.OK()
}

func cmdGetSet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	e, existed := ctx.DB.Get(key)
	var old kvvalue.Value
	if existed {
		b, ok := e.Value.AsBytes()
		if !ok {
			return wrongType()
		}
		old = kvvalue.BlobVal(b)
	} else {
		old = kvvalue.Null()
	}
	ctx.DB.Set(key, args[1])
	return old
}

func cmdAppend(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	suffix, _ := args[1].AsBytes()
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			cur, ok := e.Value.AsBytes()
			if !ok {
				return wrongType()
			}
			out := append(append([]byte{}, cur...), suffix...)
			e.ChangeValue(kvvalue.BlobVal(out))
			return kvvalue.Int(int64(len(out)))
		},
		func() (*store.Entry, kvvalue.Value) {
			e := store.NewEntry(kvvalue.BlobVal(append([]byte{}, suffix...)))
			return e, kvvalue.Int(int64(len(suffix)))
		},
	)
}

func cmdStrlen(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	e, ok := ctx.DB.Get(key)
	if !ok {
		return kvvalue.Int(0)
	}
	b, ok := e.Value.AsBytes()
	if !ok {
		return wrongType()
	}
	return kvvalue.Int(int64(len(b)))
}

func incrByHandler(delta int64) HandlerFunc {
	return func(ctx *Context, args []kvvalue.Value) kvvalue.Value {
		key := argString(args[0])
		return ctx.DB.WithValue(key,
			func(e *store.Entry) kvvalue.Value {
				n, ok := e.Value.AsInt64()
				if !ok {
					return notAnInt()
				}
				next := n + delta
				e.ChangeValue(kvvalue.Int(next))
				return kvvalue.Int(next)
			},
			func() (*store.Entry, kvvalue.Value) {
				e := store.NewEntry(kvvalue.Int(delta))
				return e, kvvalue.Int(delta)
			},
		)
	}
}

func cmdIncr(ctx *Context, args []kvvalue.Value) kvvalue.Value { return incrByHandler(1)(ctx, args) }
func cmdDecr(ctx *Context, args []kvvalue.Value) kvvalue.Value { return incrByHandler(-1)(ctx, args) }

func cmdIncrBy(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	delta, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	return incrByHandler(delta)(ctx, args[:1])
}

func cmdDecrBy(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	delta, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	return incrByHandler(-delta)(ctx, args[:1])
}

func cmdIncrByFloat(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	delta, err := argFloat(args[1])
	if err != nil {
		return notAFloat()
	}
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			f, ok := e.Value.AsFloat64()
			if !ok {
				return notAFloat()
			}
			ord, ok := kvvalue.FloatOrd(f).CheckedAdd(delta)
			if !ok {
				return kvvalue.Err(kvvalue.ErrNotANumber, "would produce NaN or Infinity")
			}
			next := float64(ord)
			e.ChangeValue(kvvalue.BlobVal([]byte(strconv.FormatFloat(next, 'g', -1, 64))))
			return kvvalue.Float(next)
		},
		func() (*store.Entry, kvvalue.Value) {
			e := store.NewEntry(kvvalue.BlobVal([]byte(strconv.FormatFloat(delta, 'g', -1, 64))))
			return e, kvvalue.Float(delta)
		},
	)
}

func cmdMGet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	out := make([]kvvalue.Value, len(args))
	for i, a := range args {
		key := argString(a)
		e, ok := ctx.DB.Get(key)
		if !ok {
			out[i] = kvvalue.Null()
			continue
		}
		b, ok := e.Value.AsBytes()
		if !ok {
			out[i] = kvvalue.Null()
			continue
		}
		out[i] = kvvalue.BlobVal(b)
	}
	return kvvalue.Arr(out...)
}

func cmdMSet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args)%2 != 0 {
		return kvvalue.Err(kvvalue.ErrGeneric, "wrong number of arguments for MSET")
	}
	for i := 0; i < len(args); i += 2 {
		ctx.DB.Set(argString(args[i]), args[i+1])
	}
	return kvvalue.OK()
}
