package dispatch

import (
	"time"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/store"
)

// blockingPollInterval is how often BLPOP/BRPOP re-check the target key
// while waiting, matching spec.md §4.4/§5.7's poll-based blocking design
// (no wake-on-push signaling in this core).
const blockingPollInterval = 100 * time.Millisecond

func registerListCommands(d *Dispatcher) {
	d.Register(&Command{Name: "lpush", Group: "list", Tags: TagWrite | TagDenyOOM, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: pushHandler(true)})
	d.Register(&Command{Name: "rpush", Group: "list", Tags: TagWrite | TagDenyOOM, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: pushHandler(false)})
	d.Register(&Command{Name: "lpop", Group: "list", Tags: TagWrite | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: popHandler(true)})
	d.Register(&Command{Name: "rpop", Group: "list", Tags: TagWrite | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: popHandler(false)})
	d.Register(&Command{Name: "llen", Group: "list", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdLLen})
	d.Register(&Command{Name: "lrange", Group: "list", Tags: TagRead, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdLRange})
	d.Register(&Command{Name: "lindex", Group: "list", Tags: TagRead, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdLIndex})
	d.Register(&Command{Name: "lrem", Group: "list", Tags: TagWrite, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdLRem})
	d.Register(&Command{Name: "blpop", Group: "list", Tags: TagWrite, MinArgs: -2,
		KeyStart: 1, KeyStop: -1, KeyStep: 1, Queueable: false, Handler: blockingPopHandler(true)})
	d.Register(&Command{Name: "brpop", Group: "list", Tags: TagWrite, MinArgs: -2,
		KeyStart: 1, KeyStop: -1, KeyStep: 1, Queueable: false, Handler: blockingPopHandler(false)})
}

func listOf(e *store.Entry) (*kvvalue.List, bool) {
	if e.Value.Kind != kvvalue.KindList {
		return nil, false
	}
	return e.Value.List, true
}

func pushHandler(left bool) HandlerFunc {
	return func(ctx *Context, args []kvvalue.Value) kvvalue.Value {
		key := argString(args[0])
		items := args[1:]
		return ctx.DB.WithValue(key,
			func(e *store.Entry) kvvalue.Value {
				l, ok := listOf(e)
				if !ok {
					return wrongType()
				}
				for _, it := range items {
					if left {
						l.PushLeft(it)
					} else {
						l.PushRight(it)
					}
				}
				e.BumpVersion()
				return kvvalue.Int(int64(l.Len()))
			},
			func() (*store.Entry, kvvalue.Value) {
				l := kvvalue.NewList()
				for _, it := range items {
					if left {
						l.PushLeft(it)
					} else {
						l.PushRight(it)
					}
				}
				return store.NewEntry(kvvalue.Value{Kind: kvvalue.KindList, List: l}), kvvalue.Int(int64(l.Len()))
			},
		)
	}
}

func popHandler(left bool) HandlerFunc {
	return func(ctx *Context, args []kvvalue.Value) kvvalue.Value {
		key := argString(args[0])
		return ctx.DB.WithValue(key,
			func(e *store.Entry) kvvalue.Value {
				l, ok := listOf(e)
				if !ok {
					return wrongType()
				}
				var v kvvalue.Value
				var popped bool
				if left {
					v, popped = l.PopLeft()
				} else {
					v, popped = l.PopRight()
				}
				if !popped {
					return kvvalue.Null()
				}
				e.BumpVersion()
				return v
			},
			func() (*store.Entry, kvvalue.Value) {
				return nil, kvvalue.Null()
			},
		)
	}
}

func cmdLLen(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Int(0)
	}
	l, ok := listOf(e)
	if !ok {
		return wrongType()
	}
	return kvvalue.Int(int64(l.Len()))
}

func cmdLRange(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	l, ok := listOf(e)
	if !ok {
		return wrongType()
	}
	start, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	stop, err := argInt(args[2])
	if err != nil {
		return notAnInt()
	}
	return kvvalue.Arr(l.Range(int(start), int(stop))...)
}

func cmdLIndex(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Null()
	}
	l, ok := listOf(e)
	if !ok {
		return wrongType()
	}
	idx, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	v, ok := l.Index(int(idx))
	if !ok {
		return kvvalue.Null()
	}
	return v
}

func cmdLRem(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	count, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	target := args[2]
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			l, ok := listOf(e)
			if !ok {
				return wrongType()
			}
			removed := l.Remove(int(count), target)
			if removed > 0 {
				e.BumpVersion()
			}
			return kvvalue.Int(int64(removed))
		},
		func() (*store.Entry, kvvalue.Value) {
			return nil, kvvalue.Int(0)
		},
	)
}

// blockingPopHandler implements BLPOP/BRPOP: poll every key in order at
// blockingPollInterval until one yields an element or the timeout (last
// arg, seconds, 0 meaning wait forever) elapses, matching the semantics
// recovered from original_source's cmd/list.rs blocking commands but
// expressed as a poll loop rather than a wake-channel, since this core's
// list mutations don't publish a wake signal.
func blockingPopHandler(left bool) HandlerFunc {
	pop := popHandler(left)
	return func(ctx *Context, args []kvvalue.Value) kvvalue.Value {
		n := len(args)
		keys := args[:n-1]
		timeoutSecs, err := argFloat(args[n-1])
		if err != nil {
			return notAFloat()
		}
		var deadline time.Time
		hasDeadline := timeoutSecs > 0
		if hasDeadline {
			deadline = time.Now().Add(time.Duration(timeoutSecs * float64(time.Second)))
		}
		ticker := time.NewTicker(blockingPollInterval)
		defer ticker.Stop()
		for {
			for _, k := range keys {
				result := pop(ctx, []kvvalue.Value{k})
				if !result.IsNil() {
					return kvvalue.Arr(k, result)
				}
			}
			if hasDeadline && time.Now().After(deadline) {
				return kvvalue.Null()
			}
			select {
			case <-ctx.Conn.Context().Done():
				return kvvalue.Null()
			case <-ticker.C:
			}
		}
	}
}
