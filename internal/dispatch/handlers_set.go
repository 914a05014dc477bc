package dispatch

import (
	"math/rand"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/store"
)

func registerSetCommands(d *Dispatcher) {
	d.Register(&Command{Name: "sadd", Group: "set", Tags: TagWrite | TagDenyOOM, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSAdd})
	d.Register(&Command{Name: "srem", Group: "set", Tags: TagWrite | TagFast, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSRem})
	d.Register(&Command{Name: "smembers", Group: "set", Tags: TagRead, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSMembers})
	d.Register(&Command{Name: "sismember", Group: "set", Tags: TagRead | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSIsMember})
	d.Register(&Command{Name: "scard", Group: "set", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdSCard})
	d.Register(&Command{Name: "srandmember", Group: "set", Tags: TagRead | TagRandom, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: false, Handler: cmdSRandMember})
	d.Register(&Command{Name: "spop", Group: "set", Tags: TagWrite | TagFast | TagRandom, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: false, Handler: cmdSPop})
}

func setOf(e *store.Entry) (map[string]struct{}, bool) {
	if e.Value.Kind != kvvalue.KindSet {
		return nil, false
	}
	return e.Value.Set, true
}

func cmdSAdd(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	members := args[1:]
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := setOf(e)
			if !ok {
				return wrongType()
			}
			added := int64(0)
			for _, m := range members {
				mv := argString(m)
				if _, exists := s[mv]; !exists {
					s[mv] = struct{}{}
					added++
				}
			}
			e.BumpVersion()
			return kvvalue.Int(added)
		},
		func() (*store.Entry, kvvalue.Value) {
			s := make(map[string]struct{})
			for _, m := range members {
				s[argString(m)] = struct{}{}
			}
			return store.NewEntry(kvvalue.Value{Kind: kvvalue.KindSet, Set: s}), kvvalue.Int(int64(len(s)))
		},
	)
}

func cmdSRem(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := setOf(e)
			if !ok {
				return wrongType()
			}
			removed := int64(0)
			for _, m := range args[1:] {
				mv := argString(m)
				if _, exists := s[mv]; exists {
					delete(s, mv)
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

func cmdSMembers(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	s, ok := setOf(e)
	if !ok {
		return wrongType()
	}
	out := make([]kvvalue.Value, 0, len(s))
	for _, m := range kvvalue.SortedKeys(s) {
		out = append(out, kvvalue.Str(m))
	}
	return kvvalue.Arr(out...)
}

func cmdSIsMember(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Bool(false)
	}
	s, ok := setOf(e)
	if !ok {
		return wrongType()
	}
	_, exists := s[argString(args[1])]
	return kvvalue.Bool(exists)
}

func cmdSCard(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Int(0)
	}
	s, ok := setOf(e)
	if !ok {
		return wrongType()
	}
	return kvvalue.Int(int64(len(s)))
}

// cmdSRandMember implements SRANDMEMBER key [count]: no count picks one
// member (nil if the set doesn't exist); a positive count picks that many
// distinct members, a negative count allows repeats, matching original_source's
// cmd/set.rs random-selection convention shared with HRANDFIELD/ZRANDMEMBER.
func cmdSRandMember(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		if len(args) > 1 {
			return kvvalue.Arr()
		}
		return kvvalue.Null()
	}
	s, ok := setOf(e)
	if !ok {
		return wrongType()
	}
	members := kvvalue.SortedKeys(s)
	if len(args) == 1 {
		if len(members) == 0 {
			return kvvalue.Null()
		}
		return kvvalue.Str(members[rand.Intn(len(members))])
	}
	count, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	picked := randomPick(members, int(count))
	out := make([]kvvalue.Value, 0, len(picked))
	for _, m := range picked {
		out = append(out, kvvalue.Str(m))
	}
	return kvvalue.Arr(out...)
}

// cmdSPop implements SPOP key [count]: removes and returns a random member
// (nil if the set doesn't exist), or up to count distinct members as an
// array when a count is given, matching original_source's cmd/set.rs pop
// semantics (always without repeats, unlike SRANDMEMBER's negative count).
func cmdSPop(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	if len(args) == 1 {
		return ctx.DB.WithValue(key,
			func(e *store.Entry) kvvalue.Value {
				s, ok := setOf(e)
				if !ok {
					return wrongType()
				}
				if len(s) == 0 {
					return kvvalue.Null()
				}
				members := kvvalue.SortedKeys(s)
				picked := members[rand.Intn(len(members))]
				delete(s, picked)
				e.BumpVersion()
				return kvvalue.Str(picked)
			},
			func() (*store.Entry, kvvalue.Value) {
				return nil, kvvalue.Null()
			},
		)
	}

	count, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	if count < 0 {
		return kvvalue.Err(kvvalue.ErrGeneric, "value is out of range, must be positive")
	}
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := setOf(e)
			if !ok {
				return wrongType()
			}
			members := kvvalue.SortedKeys(s)
			picked := randomPick(members, int(count))
			out := make([]kvvalue.Value, 0, len(picked))
			for _, m := range picked {
				delete(s, m)
				out = append(out, kvvalue.Str(m))
			}
			e.BumpVersion()
			return kvvalue.Arr(out...)
		},
		func() (*store.Entry, kvvalue.Value) {
			return nil, kvvalue.Arr()
		},
	)
}
