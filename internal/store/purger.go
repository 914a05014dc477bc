package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPurgeInterval matches spec.md §4.2's 5-second purge cadence.
const DefaultPurgeInterval = 5 * time.Second

// Purger periodically sweeps every database for expired keys. Structured
// the way ws/server.go runs its own background goroutines: a ticker loop
// selecting on ctx.Done(), logged with the same sub-logger-per-component
// convention as the rest of the repo.
type Purger struct {
	dbs      *Databases
	interval time.Duration
	logger   zerolog.Logger
}

func NewPurger(dbs *Databases, interval time.Duration, logger zerolog.Logger) *Purger {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &Purger{dbs: dbs, interval: interval, logger: logger.With().Str("component", "purger").Logger()}
}

// Run blocks sweeping on each tick until ctx is cancelled.
func (p *Purger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n := p.dbs.PurgeAll(now)
			if n > 0 {
				p.logger.Debug().Int("expired", n).Msg("purged expired keys")
			}
		}
	}
}
