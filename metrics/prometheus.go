// Package metrics exports path query and funnel statistics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements pathcore.MetricsCollector and funnel.Recorder.
type Prometheus struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	expanded      prometheus.Histogram
	funnelRuns    *prometheus.CounterVec
	funnelPoints  prometheus.Histogram
}

// NewPrometheus registers the collectors with reg under namespace.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Prometheus{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_queries_total",
			Help:      "Path queries by terminal status.",
		}, []string{"status"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_query_duration_seconds",
			Help:      "Wall time from query start to terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"status"}),
		expanded: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_query_expanded_nodes",
			Help:      "Nodes expanded per path query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 11),
		}),
		funnelRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funnel_runs_total",
			Help:      "Funnel runs, ok=false when the corridor was degenerate.",
		}, []string{"ok"}),
		funnelPoints: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "funnel_output_points",
			Help:      "Points produced per funnel run.",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 11),
		}),
	}
}

// RecordQuery implements pathcore.MetricsCollector.
func (p *Prometheus) RecordQuery(status string, expanded uint64, duration time.Duration) {
	p.queries.WithLabelValues(status).Inc()
	p.queryDuration.WithLabelValues(status).Observe(duration.Seconds())
	p.expanded.Observe(float64(expanded))
}

// RecordFunnel implements funnel.Recorder.
func (p *Prometheus) RecordFunnel(points int, ok bool) {
	p.funnelRuns.WithLabelValues(strconv.FormatBool(ok)).Inc()
	if ok {
		p.funnelPoints.Observe(float64(points))
	}
}
