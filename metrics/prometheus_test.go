package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/funnel"
	"github.com/pdrpinto/pathcore/gridgraph"
)

var (
	_ pathcore.MetricsCollector = (*Prometheus)(nil)
	_ funnel.Recorder           = (*Prometheus)(nil)
)

func TestPrometheusRecordQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordQuery("complete", 12, 3*time.Millisecond)
	p.RecordQuery("complete", 4, time.Millisecond)
	p.RecordQuery("failed", 100, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.queries.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.queries.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.queryDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(p.expanded))
}

func TestPrometheusRecordFunnel(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordFunnel(3, true)
	p.RecordFunnel(0, false)
	p.RecordFunnel(0, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.funnelRuns.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.funnelRuns.WithLabelValues("false")))
}

func TestPrometheusWiredIntoSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "pathcore")
	g := gridgraph.New(4, 4)

	_, err := pathcore.Search[gridgraph.Cell](context.Background(), g, gridgraph.Cell{}, gridgraph.Cell{X: 3, Y: 3}, g.Heuristic(), pathcore.WithMetrics(p))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.queries.WithLabelValues("complete")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pathcore_path_queries_total"])
	assert.True(t, names["pathcore_path_query_expanded_nodes"])
}
