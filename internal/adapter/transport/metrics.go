package transport

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for remote API calls.
type Metrics interface {
	// RecordCall records an API call for an operation
	RecordCall(operation string)

	// RecordDuration records call duration
	RecordDuration(operation string, duration time.Duration)

	// RecordError records an error
	RecordError(operation string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalCalls    int
	TotalDuration time.Duration
	ErrorCount    int
	ByOperation   map[string]OperationStats
}

// OperationStats contains per-operation statistics.
type OperationStats struct {
	Calls    int
	Duration time.Duration
	Errors   int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByOperation: make(map[string]OperationStats),
		},
	}
}

// RecordCall increments the call counter.
func (m *DefaultMetrics) RecordCall(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalCalls++

	os := m.stats.ByOperation[operation]
	os.Calls++
	m.stats.ByOperation[operation] = os
}

// RecordDuration records call duration.
func (m *DefaultMetrics) RecordDuration(operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration

	os := m.stats.ByOperation[operation]
	os.Duration += duration
	m.stats.ByOperation[operation] = os
}

// RecordError increments error counters.
func (m *DefaultMetrics) RecordError(operation string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++

	os := m.stats.ByOperation[operation]
	os.Errors++
	m.stats.ByOperation[operation] = os
}

// GetStats returns a copy of the current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.ByOperation = make(map[string]OperationStats, len(m.stats.ByOperation))
	for k, v := range m.stats.ByOperation {
		out.ByOperation[k] = v
	}
	return out
}

// Compile-time interface check
var _ Metrics = (*DefaultMetrics)(nil)
