package dispatch

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/sortedset"
	"github.com/adred-codev/kvdb/internal/store"
)

func registerSortedSetCommands(d *Dispatcher) {
	d.Register(&Command{Name: "zadd", Group: "sortedset", Tags: TagWrite | TagDenyOOM, MinArgs: -3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZAdd})
	d.Register(&Command{Name: "zscore", Group: "sortedset", Tags: TagRead | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZScore})
	d.Register(&Command{Name: "zcard", Group: "sortedset", Tags: TagRead | TagFast, MinArgs: 1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZCard})
	d.Register(&Command{Name: "zrank", Group: "sortedset", Tags: TagRead | TagFast, MinArgs: 2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZRank})
	d.Register(&Command{Name: "zrange", Group: "sortedset", Tags: TagRead, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZRange})
	d.Register(&Command{Name: "zrangebyscore", Group: "sortedset", Tags: TagRead, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZRangeByScore})
	d.Register(&Command{Name: "zcount", Group: "sortedset", Tags: TagRead | TagFast, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZCount})
	d.Register(&Command{Name: "zincrby", Group: "sortedset", Tags: TagWrite | TagDenyOOM, MinArgs: 3,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZIncrBy})
	d.Register(&Command{Name: "zrem", Group: "sortedset", Tags: TagWrite | TagFast, MinArgs: -2,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: cmdZRem})
	d.Register(&Command{Name: "zrandmember", Group: "sortedset", Tags: TagRead | TagRandom, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: false, Handler: cmdZRandMember})
	d.Register(&Command{Name: "zpopmin", Group: "sortedset", Tags: TagWrite | TagFast, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: zPopHandler(true)})
	d.Register(&Command{Name: "zpopmax", Group: "sortedset", Tags: TagWrite | TagFast, MinArgs: -1,
		KeyStart: 1, KeyStop: 1, KeyStep: 1, Queueable: true, Handler: zPopHandler(false)})
}

func zsetOf(e *store.Entry) (*sortedset.Set, bool) {
	if e.Value.Kind != kvvalue.KindSortedSet {
		return nil, false
	}
	s, ok := e.Value.ZSet.(*sortedset.Set)
	return s, ok
}

// cmdZAdd parses the NX/XX/GT/LT/CH/INCR option prefix then applies each
// (score, member) pair through sortedset.Set.Insert, matching the option
// parsing loop in original_source's zadd handler.
func cmdZAdd(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	i := 1
	opt := sortedset.Options{}
	for i < len(args) {
		tok := strings.ToUpper(argString(args[i]))
		switch tok {
		case "NX":
			opt.NX = true
		case "XX":
			opt.XX = true
		case "GT":
			opt.GT = true
		case "LT":
			opt.LT = true
		case "CH":
			opt.ReturnChange = true
		case "INCR":
			opt.Incr = true
		default:
			goto pairs
		}
		i++
	}
pairs:
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return syntaxErr()
	}

	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := zsetOf(e)
			if !ok {
				return wrongType()
			}
			result := applyZAdd(s, rest, opt)
			e.BumpVersion()
			return result
		},
		func() (*store.Entry, kvvalue.Value) {
			if opt.XX {
				if opt.Incr {
					return nil, kvvalue.Null()
				}
				return nil, kvvalue.Int(0)
			}
			s := sortedset.New()
			result := applyZAdd(s, rest, opt)
			return store.NewEntry(kvvalue.Value{Kind: kvvalue.KindSortedSet, ZSet: s}), result
		},
	)
}

func applyZAdd(s *sortedset.Set, rest []kvvalue.Value, opt sortedset.Options) kvvalue.Value {
	added, changed := int64(0), int64(0)
	var lastScore float64
	for i := 0; i < len(rest); i += 2 {
		score, err := argFloat(rest[i])
		if err != nil {
			return notAFloat()
		}
		member := argString(rest[i+1])
		outcome, newScore := s.Insert(score, member, opt)
		lastScore = newScore
		switch outcome {
		case sortedset.Inserted:
			added++
			changed++
		case sortedset.Updated:
			changed++
		}
	}
	if opt.Incr {
		if len(rest) != 2 {
			return syntaxErr()
		}
		return kvvalue.Float(lastScore)
	}
	if opt.ReturnChange {
		return kvvalue.Int(changed)
	}
	return kvvalue.Int(added)
}

func cmdZScore(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Null()
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	score, ok := s.Score(argString(args[1]))
	if !ok {
		return kvvalue.Null()
	}
	return kvvalue.Float(score)
}

func cmdZCard(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Int(0)
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	return kvvalue.Int(int64(s.Len()))
}

func cmdZRank(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Null()
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	rank := s.Rank(argString(args[1]))
	if rank < 0 {
		return kvvalue.Null()
	}
	return kvvalue.Int(int64(rank))
}

func cmdZRange(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	s, ok := zsetOf(e)
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
	withScores := len(args) > 3 && strings.EqualFold(argString(args[3]), "WITHSCORES")
	members := s.RangeByRank(int(start), int(stop))
	if !withScores {
		return kvvalue.Arr(members...)
	}
	out := make([]kvvalue.Value, 0, len(members)*2)
	for _, m := range members {
		score, _ := s.Score(m.Str)
		out = append(out, m, kvvalue.Float(score))
	}
	return kvvalue.Arr(out...)
}

func cmdZRangeByScore(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Arr()
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	min, err := parseBound(argString(args[1]))
	if err != nil {
		return notAFloat()
	}
	max, err := parseBound(argString(args[2]))
	if err != nil {
		return notAFloat()
	}
	withScores := len(args) > 3 && strings.EqualFold(argString(args[3]), "WITHSCORES")
	members := s.RangeByScore(min, max)
	if !withScores {
		return kvvalue.Arr(members...)
	}
	out := make([]kvvalue.Value, 0, len(members)*2)
	for _, m := range members {
		score, _ := s.Score(m.Str)
		out = append(out, m, kvvalue.Float(score))
	}
	return kvvalue.Arr(out...)
}

func cmdZCount(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		return kvvalue.Int(0)
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	min, err := parseBound(argString(args[1]))
	if err != nil {
		return notAFloat()
	}
	max, err := parseBound(argString(args[2]))
	if err != nil {
		return notAFloat()
	}
	return kvvalue.Int(int64(s.CountRange(min, max)))
}

// parseBound parses a ZRANGEBYSCORE endpoint: "-inf"/"+inf" for unbounded,
// "(score" for exclusive, otherwise inclusive, matching original_source's
// score-bound grammar in cmd/sorted_set.rs.
func parseBound(tok string) (sortedset.Bound, error) {
	switch tok {
	case "-inf":
		return sortedset.Bound{Kind: sortedset.Unbounded, Value: 0}, nil
	case "+inf":
		return sortedset.Bound{Kind: sortedset.Unbounded, Value: 0}, nil
	}
	if strings.HasPrefix(tok, "(") {
		f, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			return sortedset.Bound{}, err
		}
		return sortedset.Bound{Kind: sortedset.Exclusive, Value: f}, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return sortedset.Bound{}, err
	}
	return sortedset.Bound{Kind: sortedset.Inclusive, Value: f}, nil
}

func cmdZIncrBy(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	delta, err := argFloat(args[1])
	if err != nil {
		return notAFloat()
	}
	member := argString(args[2])
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := zsetOf(e)
			if !ok {
				return wrongType()
			}
			_, score := s.Insert(delta, member, sortedset.Options{Incr: true})
			e.BumpVersion()
			return kvvalue.Float(score)
		},
		func() (*store.Entry, kvvalue.Value) {
			s := sortedset.New()
			_, score := s.Insert(delta, member, sortedset.Options{Incr: true})
			return store.NewEntry(kvvalue.Value{Kind: kvvalue.KindSortedSet, ZSet: s}), kvvalue.Float(score)
		},
	)
}

func cmdZRem(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	key := argString(args[0])
	return ctx.DB.WithValue(key,
		func(e *store.Entry) kvvalue.Value {
			s, ok := zsetOf(e)
			if !ok {
				return wrongType()
			}
			removed := int64(0)
			for _, m := range args[1:] {
				if s.Remove(argString(m)) {
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

// cmdZRandMember implements ZRANDMEMBER key [count [WITHSCORES]], matching
// HRANDFIELD/SRANDMEMBER's count convention: no count picks one member, a
// positive count picks that many distinct members, a negative count allows
// repeats, and WITHSCORES interleaves each member with its score.
func cmdZRandMember(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	e, ok := ctx.DB.Get(argString(args[0]))
	if !ok {
		if len(args) > 1 {
			return kvvalue.Arr()
		}
		return kvvalue.Null()
	}
	s, ok := zsetOf(e)
	if !ok {
		return wrongType()
	}
	all := s.RangeByRank(0, -1)
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Str
	}
	if len(args) == 1 {
		if len(names) == 0 {
			return kvvalue.Null()
		}
		return kvvalue.Str(names[rand.Intn(len(names))])
	}

	count, err := argInt(args[1])
	if err != nil {
		return notAnInt()
	}
	withScores := len(args) > 2 && strings.EqualFold(argString(args[2]), "WITHSCORES")
	picked := randomPick(names, int(count))
	if !withScores {
		out := make([]kvvalue.Value, 0, len(picked))
		for _, m := range picked {
			out = append(out, kvvalue.Str(m))
		}
		return kvvalue.Arr(out...)
	}
	out := make([]kvvalue.Value, 0, len(picked)*2)
	for _, m := range picked {
		score, _ := s.Score(m)
		out = append(out, kvvalue.Str(m), kvvalue.Float(score))
	}
	return kvvalue.Arr(out...)
}

// zPopHandler builds ZPOPMIN/ZPOPMAX, which differ only in which end of the
// rank ordering they remove from: rank 0 for the lowest score, rank -1 for
// the highest, matching original_source's shared pop-by-rank implementation
// in cmd/sorted_set.rs.
func zPopHandler(min bool) HandlerFunc {
	return func(ctx *Context, args []kvvalue.Value) kvvalue.Value {
		key := argString(args[0])
		count := 1
		if len(args) > 1 {
			n, err := argInt(args[1])
			if err != nil {
				return notAnInt()
			}
			count = int(n)
		}
		return ctx.DB.WithValue(key,
			func(e *store.Entry) kvvalue.Value {
				s, ok := zsetOf(e)
				if !ok {
					return wrongType()
				}
				out := make([]kvvalue.Value, 0, count*2)
				for i := 0; i < count && s.Len() > 0; i++ {
					var picked []kvvalue.Value
					if min {
						picked = s.RangeByRank(0, 0)
					} else {
						picked = s.RangeByRank(-1, -1)
					}
					if len(picked) == 0 {
						break
					}
					member := picked[0].Str
					score, _ := s.Score(member)
					s.Remove(member)
					out = append(out, kvvalue.Str(member), kvvalue.Float(score))
				}
				e.BumpVersion()
				return kvvalue.Arr(out...)
			},
			func() (*store.Entry, kvvalue.Value) {
				return nil, kvvalue.Arr()
			},
		)
	}
}
