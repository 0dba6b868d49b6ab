package fetch

import (
	"slices"
	"sync"
	"time"
)

// StatsSnapshot summarizes the calls one client made during a build.
type StatsSnapshot struct {
	Count    int   `json:"count"`
	Failures int   `json:"failures"`
	TotalMs  int64 `json:"total_ms"`
	P50Ms    int64 `json:"p50_ms"`
	P95Ms    int64 `json:"p95_ms"`
	MaxMs    int64 `json:"max_ms"`
}

// Stats accumulates call latencies for the lifetime of a client.
type Stats struct {
	mu        sync.Mutex
	durations []time.Duration
	failures  int
}

func NewStats() *Stats {
	return &Stats{durations: make([]time.Duration, 0, 256)}
}

// Record adds one call. Failed calls count toward latency too.
func (s *Stats) Record(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, max(d, 0))
	if failed {
		s.failures++
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	sorted := slices.Clone(s.durations)
	failures := s.failures
	s.mu.Unlock()

	if len(sorted) == 0 {
		return StatsSnapshot{}
	}
	slices.Sort(sorted)
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return StatsSnapshot{
		Count:    len(sorted),
		Failures: failures,
		TotalMs:  total.Milliseconds(),
		P50Ms:    nearestRank(sorted, 50).Milliseconds(),
		P95Ms:    nearestRank(sorted, 95).Milliseconds(),
		MaxMs:    sorted[len(sorted)-1].Milliseconds(),
	}
}

// nearestRank returns the smallest recorded value with at least pct percent
// of samples at or below it.
func nearestRank(sorted []time.Duration, pct int) time.Duration {
	rank := (pct*len(sorted) + 99) / 100
	return sorted[max(rank, 1)-1]
}
