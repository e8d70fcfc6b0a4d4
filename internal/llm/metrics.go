package llm

import (
	"sync"
	"time"
)

// ComboStats is a point-in-time snapshot of one combination's counters.
type ComboStats struct {
	Calls        int64 `json:"calls"`
	Errors       int64 `json:"errors"`
	TotalLatency int64 `json:"total_latency_ms"`
}

// Metrics tracks per-combination call counts, error counts, and cumulative
// latency. Exposed through the status endpoint for quota debugging.
type Metrics struct {
	mu    sync.Mutex
	stats map[Combination]*ComboStats
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{stats: make(map[Combination]*ComboStats)}
}

// Record registers one attempt against a combination.
func (m *Metrics) Record(combo Combination, err error, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[combo]
	if !ok {
		s = &ComboStats{}
		m.stats[combo] = s
	}
	s.Calls++
	if err != nil {
		s.Errors++
	}
	s.TotalLatency += latency.Milliseconds()
}

// Snapshot returns a copy of all counters keyed by combination string.
func (m *Metrics) Snapshot() map[string]ComboStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ComboStats, len(m.stats))
	for combo, s := range m.stats {
		out[combo.String()] = *s
	}
	return out
}
