package pathcore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives one call per finished query.
// Implement it to feed a monitoring system; see package metrics for Prometheus.
type MetricsCollector interface {
	// RecordQuery is called once a query reaches a terminal status.
	// status is Status.String(), duration the wall time between Initialize
	// and the terminal step.
	RecordQuery(status string, expanded uint64, duration time.Duration)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordQuery(string, uint64, time.Duration) {}

// BasicMetrics keeps in-memory counters. Useful in tests and for debugging.
type BasicMetrics struct {
	Queries       atomic.Int64
	Complete      atomic.Int64
	Partial       atomic.Int64
	Failed        atomic.Int64
	ExpandedNodes atomic.Uint64
	TotalNanos    atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetrics) RecordQuery(status string, expanded uint64, duration time.Duration) {
	b.Queries.Add(1)
	b.ExpandedNodes.Add(expanded)
	b.TotalNanos.Add(duration.Nanoseconds())
	switch status {
	case StatusComplete.String():
		b.Complete.Add(1)
	case StatusPartial.String():
		b.Partial.Add(1)
	case StatusFailed.String():
		b.Failed.Add(1)
	}
}
