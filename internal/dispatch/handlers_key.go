package dispatch

import (
	"strings"
	"time"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/store"
)

func registerKeyCommands(d *Dispatcher) {
	d.Register(&Command{Name: "del", Group: "key", Tags: TagWrite, MinArgs: -1,
		KeyStart: 1, KeyStop: 0, KeyStep: 1, Queueable: true, Handler: cmdDel})
	d.Register(&Command{Name: "exists", Group: "key", Tags: TagRead | TagFast, MinArgs: -1,
		KeyStart: 1, KeyStop: 0, KeyStep: 1, Queueable: true, Handler: cmdExists})
	d.Register(&Command{Name: "expire", Group: "key", Tags: TagWrite | TagFast, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdExpire})
	d.Register(&Command{Name: "pexpire", Group: "key", Tags: TagWrite | TagFast, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdPExpire})
	d.Register(&Command{Name: "persist", Group: "key", Tags: TagWrite | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdPersist})
	d.Register(&Command{Name: "ttl", Group: "key", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdTTL})
	d.Register(&Command{Name: "pttl", Group: "key", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdPTTL})
	d.Register(&Command{Name: "type", Group: "key", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdType})
	d.Register(&Command{Name: "object", Group: "key", Tags: TagRead | TagFast, MinArgs: -2,
		KeyStart: 2, KeyStop: 2, KeyStep: 1, Queueable: true, Handler: cmdObject})
	d.Register(&Command{Name: "keys", Group: "key", Tags: TagRead, MinArgs: 1,
		KeyStart: 0, Queueable: false, Handler: cmdKeys})
	d.Register(&Command{Name: "scan", Group: "key", Tags: TagRead, MinArgs: -1,
		KeyStart: 0, Queueable: false, Handler: cmdScan})
	d.Register(&Command{Name: "randomkey", Group: "key", Tags: TagRead | TagRandom, MinArgs: 1,
		KeyStart: 0, Queueable: false, Handler: cmdRandomKey})
	d.Register(&Command{Name: "rename", Group: "key", Tags: TagWrite, MinArgs: 2,
		KeyStart: 1, KeyStop: 2, KeyStep: 1, Queueable: true, Handler: cmdRename})
	d.Register(&Command{Name: "renamenx", Group: "key", Tags: TagWrite | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 2, KeyStep: 1, Queueable: true, Handler: cmdRenameNX})
	d.Register(&Command{Name: "copy", Group: "key", Tags: TagWrite, MinArgs: -2,
		KeyStart: 1, KeyStop: 2, KeyStep: 1, Queueable: true, Handler: cmdCopy})
	d.Register(&Command{Name: "dbsize", Group: "key", Tags: TagRead | TagFast, MinArgs: 0,
		KeyStart: 0, Queueable: false, Handler: cmdDBSize})
	d.Register(&Command{Name: "flushdb", Group: "key", Tags: TagWrite | TagAdmin, MinArgs: 0,
		KeyStart: 0, Queueable: false, Handler: cmdFlushDB})
}

func cmdDel(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	count := int64(0)
	for _, a := range args {
		if ctx.DB.Del(argString(a)) {
			count++
		}
	}
	return kvvalue.Int(count)
}

func cmdExists(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	count := int64(0)
	for _, a := range args {
		if ctx.DB.Exists(argString(a)) {
			count++
		}
	}
	return kvvalue.Int(count)
}

// expirePolicy parses the optional NX/XX/GT/LT trailing token shared by
// EXPIRE/PEXPIRE, matching spec.md §4.2's option set.
func expirePolicy(args []kvvalue.Value, idx int) (store.ExpirePolicy, bool) {
	if idx >= len(args) {
		return store.ExpireAlways, true
	}
	switch strings.ToUpper(argString(args[idx])) {
	case "NX":
		return store.ExpireNX, true
	case "XX":
		return store.ExpireXX, true
	case "GT":
		return store.ExpireGT, true
	case "LT":
		return store.ExpireLT, true
	}
	return store.ExpireAlways, false
}

func cmdExpire(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	secs, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	policy, ok := expirePolicy(args, 2)
	if !ok {
		return syntaxErr()
	}
	applied := ctx.DB.ExpireWithPolicy(key, time.Now().Add(time.Duration(secs)*time.Second), policy)
	return kvvalue.Bool(applied)
}

func cmdPExpire(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	ms, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	policy, ok := expirePolicy(args, 2)
	if !ok {
		return syntaxErr()
	}
	applied := ctx.DB.ExpireWithPolicy(key, time.Now().Add(time.Duration(ms)*time.Millisecond), policy)
	return kvvalue.Bool(applied)
}

func cmdPersist(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	return kvvalue.Bool(ctx.DB.Persist(argString(args[0])))
}

func cmdTTL(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	d := ctx.DB.TTL(argString(args[0]))
	if d < 0 {
		return kvvalue.Int(int64(d / time.Second))
	}
	return kvvalue.Int(int64(d.Round(time.Second) / time.Second))
}

func cmdPTTL(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	d := ctx.DB.TTL(argString(args[0]))
	if d < 0 {
		return kvvalue.Int(int64(d / time.Second))
	}
	return kvvalue.Int(int64(d / time.Millisecond))
}

func cmdType(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Str("none")
	}
	return kvvalue.Str(e.Value.TypeName())
}

// cmdObject implements OBJECT ENCODING key, the introspection form spec.md
// §2 and SPEC_FULL.md §6 call out by name; OBJECT FREQ/IDLETIME/REFCOUNT
// have no backing data in this core and are left unimplemented.
func cmdObject(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if !strings.EqualFold(argString(args[0]), "ENCODING") {
		return kvvalue.Err(kvvalue.ErrGeneric, "unknown OBJECT subcommand")
	}
	e, ok := ctx.DB.Get(argString(args[1]))
	if !ok {
		return kvvalue.Err(kvvalue.ErrNoSuchKey, "")
	}
	return kvvalue.Str(e.Value.Encoding())
}

func cmdKeys(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	pattern := argString(args[0])
	var g globMatcher
	if pattern != "*" && pattern != "" {
		g = compileGlob(pattern)
	}
	var out []kvvalue.Value
	for _, k := range ctx.DB.Keys() {
		if g == nil || g.Match(k) {
			out = append(out, kvvalue.Str(k))
		}
	}
	return kvvalue.Arr(out...)
}

func cmdScan(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	cursorN, err := argInt(args[0])
	if err != nil {
		return notAnInt()
	}
	count := 10
	var pattern string
	for i := 1; i < len(args); i++ {
		opt := argString(args[i])
		switch opt {
		case "COUNT", "count":
			if i+1 < len(args) {
				n, _ := argInt(args[i+1])
				count = int(n)
				i++
			}
		case "MATCH", "match":
			if i+1 < len(args) {
				pattern = argString(args[i+1])
				i++
			}
		}
	}
	keys, next := ctx.DB.Scan(store.ScanCursor{ShardIndex: int(cursorN)}, count)
	var g globMatcher
	if pattern != "" {
		g = compileGlob(pattern)
	}
	var filtered []kvvalue.Value
	for _, k := range keys {
		if g == nil || g.Match(k) {
			filtered = append(filtered, kvvalue.Str(k))
		}
	}
	return kvvalue.Arr(kvvalue.Str(itoa(next.ShardIndex)), kvvalue.Arr(filtered...))
}

func cmdRandomKey(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	k, ok := ctx.DB.RandomKey()
	if !ok {
		return kvvalue.Null()
	}
	return kvvalue.Str(k)
}

func cmdRename(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	src := argString(args[0])
	dst := argString(args[1])
	e, ok := ctx.DB.Get(src)
	if !ok {
		return kvvalue.Err(kvvalue.ErrNoSuchKey, "")
	}
	ctx.DB.Set(dst, e.Value)
	ctx.DB.Del(src)
	return kvvalue.OK()
}

// cmdRenameNX is RENAME that refuses to clobber an existing destination,
// matching original_source's cmd/key.rs rename_nx: no-op (and a 0 reply)
// rather than an error if dst is already taken.
func cmdRenameNX(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	src := argString(args[0])
	dst := argString(args[1])
	e, ok := ctx.DB.Get(src)
	if !ok {
		return kvvalue.Err(kvvalue.ErrNoSuchKey, "")
	}
	if ctx.DB.Exists(dst) {
		return kvvalue.Int(0)
	}
	ctx.DB.Set(dst, e.Value)
	ctx.DB.Del(src)
	return kvvalue.Int(1)
}

// cmdCopy implements COPY src dst [REPLACE]: clones a scalar value to a new
// key, matching entry.rs's clone_value/is_clonable contract (container kinds
// are not copyable in this core and report WRONGTYPE).
func cmdCopy(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	src := argString(args[0])
	dst := argString(args[1])
	replace := false
	for i := 2; i < len(args); i++ {
		if strings.EqualFold(argString(args[i]), "REPLACE") {
			replace = true
		}
	}
	e, ok := ctx.DB.Get(src)
	if !ok {
		return kvvalue.Int(0)
	}
	if !replace && ctx.DB.Exists(dst) {
		return kvvalue.Int(0)
	}
	cloned := e.CloneValue()
	if cloned.Kind == kvvalue.KindError {
		return cloned
	}
	ctx.DB.Set(dst, cloned)
	return kvvalue.Int(1)
}

func cmdDBSize(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	return kvvalue.Int(int64(ctx.DB.Size()))
}

func cmdFlushDB(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	ctx.DB.FlushDB()
	return kvvalue.OK()
}
