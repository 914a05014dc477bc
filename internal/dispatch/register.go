package dispatch

// registerAllCommands populates the dispatcher's command table with every
// command group. Split across one file per group (handlers_*.go) matching
// original_source's per-family cmd/*.rs module layout.
func registerAllCommands(d *Dispatcher) {
	registerStringCommands(d)
	registerKeyCommands(d)
	registerHashCommands(d)
	registerListCommands(d)
	registerSetCommands(d)
	registerSortedSetCommands(d)
	registerConnectionCommands(d)
	registerTransactionCommands(d)
	registerPubsubCommands(d)
	registerServerCommands(d)
}
