package dispatch

import (
	"strings"

	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/pubsub"
)

func registerPubsubCommands(d *Dispatcher) {
	d.Register(&Command{Name: "subscribe", Group: "pubsub", Tags: TagPubsub | TagNoScript | TagLoading | TagStale, MinArgs: -1,
		Queueable: false, Handler: cmdSubscribe})
	d.Register(&Command{Name: "unsubscribe", Group: "pubsub", Tags: TagPubsub | TagNoScript | TagLoading | TagStale, MinArgs: -1,
		Queueable: false, Handler: cmdUnsubscribe})
	d.Register(&Command{Name: "psubscribe", Group: "pubsub", Tags: TagPubsub | TagNoScript | TagLoading | TagStale, MinArgs: -1,
		Queueable: false, Handler: cmdPSubscribe})
	d.Register(&Command{Name: "punsubscribe", Group: "pubsub", Tags: TagPubsub | TagNoScript | TagLoading | TagStale, MinArgs: -1,
		Queueable: false, Handler: cmdPUnsubscribe})
	d.Register(&Command{Name: "publish", Group: "pubsub", Tags: TagPubsub | TagFast | TagMayReplicate, MinArgs: 2,
		Queueable: false, Handler: cmdPublish})
	d.Register(&Command{Name: "pubsub", Group: "pubsub", Tags: TagPubsub | TagFast, MinArgs: -1,
		Queueable: false, Handler: cmdPubsub})
}

func cmdSubscribe(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	out := make([]kvvalue.Value, 0, len(args)*3)
	for _, a := range args {
		channel := argString(a)
		ctx.Hub.Subscribe(channel, &pubsub.Subscriber{ID: ctx.Conn.ID, Send: ctx.Conn.Send})
		ctx.Conn.AddChannel(channel)
		ctx.Conn.EnterPubsub()
		out = append(out, kvvalue.Str("subscribe"), kvvalue.Str(channel),
			kvvalue.Int(int64(ctx.Conn.SubscriptionCount())))
	}
	return kvvalue.Arr(out...)
}

func cmdUnsubscribe(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	channels := args
	if len(channels) == 0 {
		for _, ch := range ctx.Conn.Channels() {
			channels = append(channels, kvvalue.Str(ch))
		}
	}
	out := make([]kvvalue.Value, 0, len(channels)*3)
	for _, a := range channels {
		channel := argString(a)
		ctx.Hub.Unsubscribe(channel, ctx.Conn.ID)
		ctx.Conn.RemoveChannel(channel)
		out = append(out, kvvalue.Str("unsubscribe"), kvvalue.Str(channel),
			kvvalue.Int(int64(ctx.Conn.SubscriptionCount())))
	}
	ctx.Conn.ExitPubsubIfEmpty()
	return kvvalue.Arr(out...)
}

func cmdPSubscribe(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	out := make([]kvvalue.Value, 0, len(args)*3)
	for _, a := range args {
		pattern := argString(a)
		if err := ctx.Hub.PSubscribe(pattern, &pubsub.Subscriber{ID: ctx.Conn.ID, Send: ctx.Conn.Send}); err != nil {
			return kvvalue.Err(kvvalue.ErrGeneric, "invalid pattern")
		}
		ctx.Conn.AddPattern(pattern)
		ctx.Conn.EnterPubsub()
		out = append(out, kvvalue.Str("psubscribe"), kvvalue.Str(pattern),
			kvvalue.Int(int64(ctx.Conn.SubscriptionCount())))
	}
	return kvvalue.Arr(out...)
}

func cmdPUnsubscribe(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	patterns := args
	if len(patterns) == 0 {
		for _, p := range ctx.Conn.Patterns() {
			patterns = append(patterns, kvvalue.Str(p))
		}
	}
	out := make([]kvvalue.Value, 0, len(patterns)*3)
	for _, a := range patterns {
		pattern := argString(a)
		ctx.Hub.PUnsubscribe(pattern, ctx.Conn.ID)
		ctx.Conn.RemovePattern(pattern)
		out = append(out, kvvalue.Str("punsubscribe"), kvvalue.Str(pattern),
			kvvalue.Int(int64(ctx.Conn.SubscriptionCount())))
	}
	ctx.Conn.ExitPubsubIfEmpty()
	return kvvalue.Arr(out...)
}

func cmdPublish(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	channel := argString(args[0])
	n := ctx.Hub.Publish(channel, args[1])
	return kvvalue.Int(int64(n))
}

// cmdPubsub implements PUBSUB CHANNELS/NUMSUB/NUMPAT, the introspection
// trio recovered from original_source's cmd/pubsub.rs.
func cmdPubsub(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	if len(args) == 0 {
		return syntaxErr()
	}
	switch strings.ToUpper(argString(args[0])) {
	case "CHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern = argString(args[1])
		}
		chans := ctx.Hub.Channels(pattern)
		out := make([]kvvalue.Value, 0, len(chans))
		for _, c := range chans {
			out = append(out, kvvalue.Str(c))
		}
		return kvvalue.Arr(out...)
	case "NUMSUB":
		out := make([]kvvalue.Value, 0, len(args[1:])*2)
		for _, a := range args[1:] {
			channel := argString(a)
			out = append(out, kvvalue.Str(channel), kvvalue.Int(int64(ctx.Hub.NumSub(channel))))
		}
		return kvvalue.Arr(out...)
	case "NUMPAT":
		return kvvalue.Int(int64(ctx.Hub.NumPat()))
	}
	return kvvalue.Err(kvvalue.ErrGeneric, "unknown PUBSUB subcommand")
}
