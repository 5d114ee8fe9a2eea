package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests      uint64
	errorRequests      uint64
	totalDurationMs    uint64
	generationRuns     uint64
	generationFailures uint64
	entriesComputed    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordGeneration(entries int, failed bool) {
	atomic.AddUint64(&c.generationRuns, 1)
	if failed {
		atomic.AddUint64(&c.generationFailures, 1)
		return
	}
	atomic.AddUint64(&c.entriesComputed, uint64(entries))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":      avg,
		"generationRuns":     atomic.LoadUint64(&c.generationRuns),
		"generationFailures": atomic.LoadUint64(&c.generationFailures),
		"entriesComputed":    atomic.LoadUint64(&c.entriesComputed),
	}
}
