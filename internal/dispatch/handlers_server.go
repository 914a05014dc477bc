package dispatch

import (
	"fmt"
	"strings"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

func registerServerCommands(d *Dispatcher) {
	d.Register(&Command{Name: "info", Group: "server", Tags: TagAdmin | TagLoading | TagStale, MinArgs: -1,
		Queueable: false, Handler: cmdInfo})
}

// cmdInfo renders a minimal INFO section set (server/clients/memory/
// keyspace), the subset of original_source's info.rs sections this core
// has data for; replication/cluster/persistence sections are omitted since
// those subsystems are explicit Non-goals.
func cmdInfo(ctx *Context, args []kvvalue.Value) kvvalue.Value {
	var b strings.Builder

	b.WriteString("# Server\r\n")
	b.WriteString("kvdb_version:1.0.0\r\n")

	b.WriteString("# Clients\r\n")
	fmt.Fprintf(&b, "connected_clients:%d\r\n", 1)

	b.WriteString("# Memory\r\n")
	if ctx.Sampler != nil {
		sample := ctx.Sampler.Last()
		fmt.Fprintf(&b, "used_memory_mb:%.2f\r\n", sample.MemoryRSSMB)
	}

	b.WriteString("# Keyspace\r\n")
	for i := 0; i < ctx.DBs.Count(); i++ {
		db := ctx.DBs.Get(i)
		if db.Size() > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d\r\n", i, db.Size())
		}
	}

	return kvvalue.BlobVal([]byte(b.String()))
}
