// Package rusage periodically samples process resource usage, grounded on
// ws/server.go's collectMetrics/monitorMemory goroutines: a ticker loop
// reading process.MemoryInfo() (falling back to system-wide mem.VirtualMemory
// if the process handle can't be obtained) and caching the last sample under
// a mutex for cheap concurrent reads by the INFO-equivalent introspection
// command.
package rusage

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/rs/zerolog"
)

// Sample is the latest resource snapshot.
type Sample struct {
	MemoryRSSMB float64
	NumGoroutine int
	SampledAt   time.Time
}

// Sampler owns the last Sample and refreshes it on a ticker.
type Sampler struct {
	interval time.Duration
	logger   zerolog.Logger

	mu   sync.RWMutex
	last Sample
}

func New(interval time.Duration, logger zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Sampler{interval: interval, logger: logger.With().Str("component", "rusage").Logger()}
}

// Run samples resource usage on a ticker until ctx is cancelled, matching
// collectMetrics's goroutine shape in the teacher.
func (s *Sampler) Run(ctx context.Context) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get process handle, falling back to system memory")
		proc = nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sampleOnce(proc)
		}
	}
}

func (s *Sampler) sampleOnce(proc *process.Process) {
	var memMB float64
	if proc != nil {
		if info, err := proc.MemoryInfo(); err == nil {
			memMB = float64(info.RSS) / 1024 / 1024
		}
	} else if vmem, err := mem.VirtualMemory(); err == nil {
		memMB = float64(vmem.Used) / 1024 / 1024
	}

	s.mu.Lock()
	s.last = Sample{MemoryRSSMB: memMB, SampledAt: time.Now()}
	s.mu.Unlock()
}

// Last returns the most recent sample.
func (s *Sampler) Last() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
