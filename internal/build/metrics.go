package build

import (
	"sync"
	"time"
)

// GenerationResult describes one run of the generation pipeline.
type GenerationResult struct {
	Duration time.Duration
	CacheHit bool
	Changed  bool
	Error    error
}

// Metrics tracks generation runs across a watch session.
type Metrics struct {
	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	CacheHits       int64
	Writes          int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one run to the metrics.
func (m *Metrics) Record(result GenerationResult) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns++
	m.TotalDuration += result.Duration

	if result.CacheHit {
		m.CacheHits++
	}
	if result.Error != nil {
		m.FailedRuns++
	} else {
		m.SuccessfulRuns++
		if result.Changed {
			m.Writes++
		}
	}

	m.AverageDuration = m.TotalDuration / time.Duration(m.TotalRuns)
}

// Snapshot returns a copy of the current metrics.
func (m *Metrics) Snapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Metrics{
		TotalRuns:       m.TotalRuns,
		SuccessfulRuns:  m.SuccessfulRuns,
		FailedRuns:      m.FailedRuns,
		CacheHits:       m.CacheHits,
		Writes:          m.Writes,
		AverageDuration: m.AverageDuration,
		TotalDuration:   m.TotalDuration,
	}
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns = 0
	m.SuccessfulRuns = 0
	m.FailedRuns = 0
	m.CacheHits = 0
	m.Writes = 0
	m.AverageDuration = 0
	m.TotalDuration = 0
}

// CacheHitRate returns the cache hit rate as a percentage.
func (m *Metrics) CacheHitRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRuns == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(m.TotalRuns) * 100.0
}

// SuccessRate returns the success rate as a percentage.
func (m *Metrics) SuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRuns == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRuns) / float64(m.TotalRuns) * 100.0
}
