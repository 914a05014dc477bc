package dispatch

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/store"
)

func registerHashCommands(d *Dispatcher) {
	d.Register(&Command{Name: "hset", Group: "hash", Tags: TagWrite | TagDenyOOM, MinArgs: -3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHSet})
	d.Register(&Command{Name: "hget", Group: "hash", Tags: TagRead | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHGet})
	d.Register(&Command{Name: "hdel", Group: "hash", Tags: TagWrite | TagFast, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHDel})
	d.Register(&Command{Name: "hgetall", Group: "hash", Tags: TagRead, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHGetAll})
	d.Register(&Command{Name: "hexists", Group: "hash", Tags: TagRead | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHExists})
	d.Register(&Command{Name: "hlen", Group: "hash", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHLen})
	d.Register(&Command{Name: "hkeys", Group: "hash", Tags: TagRead, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHKeys})
	d.Register(&Command{Name: "hvals", Group: "hash", Tags: TagRead, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdHVals})
	d.Register(&Command{Name: "hrandfield", Group: "hash", Tags: TagRead | TagRandom, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: false, Handler: cmdHRandField})
}

func hashOf(e *store.Entry) (map[string]kvvalue.Value, bool) {
	if e.Value.Kind != kvvalue.KindHash {
		return nil, false
	}
	return e.Value.Hash, true
}

func cmdHSet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args)%2 != 1 {
		return kvvalue.Err(kvvalue.ErrGeneric, "wrong number of arguments for HSET")
	}
	key := argString(args[0])
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			h, ok := hashOf(e)
			if !ok {
				return wrongType()
			}
			added := int64(0)
			for i := 1; i < len(args); i += 2 {
				field := argString(args[i])
				if _, existed := h[field]; !existed {
					added++
				}
				h[field] = args[i+1]
			}
			e.BumpVersion()
			return kvvalue.Int(added)
		},
		func() (*store.Entry, kvvalue.Value) {
			h := make(map[string]kvvalue.Value)
			added := int64(0)
			for i := 1; i < len(args); i += 2 {
				field := argString(args[i])
				if _, existed := h[field]; !existed {
					added++
				}
				h[field] = args[i+1]
			}
			return store.NewEntry(kvvalue.Value{Kind: kvvalue.KindHash, Hash: h}), kvvalue.Int(added)
		},
	)
}

func cmdHGet(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Null()
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	v, ok := h[argString(args[1])]
	if !ok {
		return kvvalue.Null()
	}
	return v
}

func cmdHDel(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			h, ok := hashOf(e)
			if !ok {
				return wrongType()
			}
			removed := int64(0)
			for _, f := range args[1:] {
				field := argString(f)
				if _, existed := h[field]; existed {
					delete(h, field)
					removed++
				}
			}
			e.BumpVersion()
			return kvvalue.Int(removed)
		},
		func() (*store.Entry, kvvalue.Value) {
			return nil, kvvalue.Int(0)
		},
	)
}

func cmdHGetAll(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	out := make([]kvvalue.Value, 0, len(h)*2)
	for _, k := range sortedHashFields(h) {
		out = append(out, kvvalue.Str(k), h[k])
	}
	return kvvalue.Arr(out...)
}

func cmdHExists(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Bool(false)
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	_, exists := h[argString(args[1])]
	return kvvalue.Bool(exists)
}

func cmdHLen(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Int(0)
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	return kvvalue.Int(int64(len(h)))
}

func cmdHKeys(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	out := make([]kvvalue.Value, 0, len(h))
	for _, k := range sortedHashFields(h) {
		out = append(out, kvvalue.Str(k))
	}
	return kvvalue.Arr(out...)
}

func cmdHVals(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	out := make([]kvvalue.Value, 0, len(h))
	for _, k := range sortedHashFields(h) {
		out = append(out, h[k])
	}
	return kvvalue.Arr(out...)
}

// cmdHRandField implements HRANDFIELD key [count [WITHVALUES]], matching
// original_source's cmd/hash.rs: no count picks one field (nil if the hash
// doesn't exist), a positive count picks that many distinct fields, a
// negative count allows repeats, and WITHVALUES interleaves each field with
// its value in the reply.
func cmdHRandField(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		if len(args) > 1 {
			return kvvalue.Arr()
		}
		return kvvalue.Null()
	}
	h, ok := hashOf(e)
	if !ok {
		return wrongType()
	}
	if len(args) == 1 {
		if len(h) == 0 {
			return kvvalue.Null()
		}
		fields := sortedHashFields(h)
		return kvvalue.Str(fields[rand.Intn(len(fields))])
	}

	count, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	withValues := len(args) > 2 && strings.EqualFold(argString(args[2]), "WITHVALUES")

	fields := sortedHashFields(h)
	picked := randomPick(fields, int(count))
	if !withValues {
		out := make([]kvvalue.Value, 0, len(picked))
		for _, f := range picked {
			out = append(out, kvvalue.Str(f))
		}
		return kvvalue.Arr(out...)
	}
	out := make([]kvvalue.Value, 0, len(picked)*2)
	for _, f := range picked {
		out = append(out, kvvalue.Str(f), h[f])
	}
	return kvvalue.Arr(out...)
}

// randomPick returns min(count, len(items)) distinct elements for a
// positive count, or exactly -count elements allowing repeats for a
// negative count, matching the HRANDFIELD/SRANDMEMBER/ZRANDMEMBER count
// convention shared across original_source's random-selection commands.
func randomPick(items []string, count int) []string {
	if count == 0 || len(items) == 0 {
		return nil
	}
	if count < 0 {
		n := -count
		out := make([]string, n)
		for i := range out {
			out[i] = items[rand.Intn(len(items))]
		}
		return out
	}
	if count > len(items) {
		count = len(items)
	}
	perm := rand.Perm(len(items))
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = items[perm[i]]
	}
	return out
}

func sortedHashFields(h map[string]kvvalue.Value) []string {
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
