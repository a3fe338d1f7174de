package highlight

import (
	"sort"
	"sync"
	"time"
)

// Stats keeps a rolling window of annotator call latencies for the
// /api/stats/llm endpoint.
type Stats struct {
	mu     sync.Mutex
	when   []time.Time
	lat    []int64
	maxAge time.Duration
}

// StatsSnapshot is a point-in-time aggregate of the window.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{maxAge: maxAge}
}

// Record adds one call latency in milliseconds.
func (s *Stats) Record(ms int64) {
	if ms < 0 {
		ms = 0
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.when = append(s.when, now)
	s.lat = append(s.lat, ms)
}

// Snapshot aggregates the current window.
func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	if len(s.lat) == 0 {
		return StatsSnapshot{}
	}

	sorted := make([]int64, len(s.lat))
	copy(sorted, s.lat)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, v := range sorted {
		sum += v
	}
	return StatsSnapshot{
		Count: len(sorted),
		MinMs: sorted[0],
		MaxMs: sorted[len(sorted)-1],
		AvgMs: float64(sum) / float64(len(sorted)),
		P50Ms: percentile(sorted, 50),
		P95Ms: percentile(sorted, 95),
	}
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	keep := 0
	for i, ts := range s.when {
		if !ts.Before(cutoff) {
			s.when[keep] = ts
			s.lat[keep] = s.lat[i]
			keep++
		}
	}
	s.when = s.when[:keep]
	s.lat = s.lat[:keep]
}

func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (float64(len(sorted)-1) * pct) / 100.0
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	w := idx - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[hi])-float64(sorted[lo]))*w
}
