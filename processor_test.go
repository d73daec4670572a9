package pathcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestProcessorServesRequestsInOrder(t *testing.T) {
	logger, _ := quietLogger()
	metrics := &BasicMetrics{}
	g := newTestGrid(10, 10)
	p := NewProcessor[point](g, manhattan, WithLogger(logger), WithMetrics(metrics))

	var served []uuid.UUID
	callback := func(r Result[point]) { served = append(served, r.ID) }
	ids := []uuid.UUID{
		p.Submit(Request[point]{Start: point{0, 0}, Goal: point{9, 9}, Callback: callback}),
		p.Submit(Request[point]{Start: point{9, 0}, Goal: point{0, 9}, Callback: callback}),
		p.Submit(Request[point]{Start: point{5, 5}, Goal: point{5, 5}, Callback: callback}),
	}
	for _, id := range ids {
		assert.NotEqual(t, uuid.Nil, id)
	}
	assert.Equal(t, 3, p.Pending())
	assert.False(t, p.Idle())

	results, err := p.Flush(context.Background(), rate.NewLimiter(rate.Inf, 1), time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, p.Idle())
	assert.Equal(t, ids, served)
	for i, result := range results {
		assert.Equal(t, ids[i], result.ID)
		assert.Equal(t, StatusComplete, result.Status)
	}
	assert.Equal(t, uint32(18), results[0].TotalCost)
	assert.Equal(t, int64(3), metrics.Complete.Load())
}

func TestProcessorKeepsCallerID(t *testing.T) {
	p := NewProcessor[point](newTestGrid(3, 3), manhattan)
	id := uuid.New()
	assert.Equal(t, id, p.Submit(Request[point]{ID: id, Start: point{0, 0}, Goal: point{2, 2}}))

	results := p.Tick(time.Second)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}

func TestProcessorTickIsTimeSliced(t *testing.T) {
	g := newTestGrid(30, 30)
	p := NewProcessor[point](g, manhattan, WithCheckInterval(1))
	p.Submit(Request[point]{Start: point{0, 0}, Goal: point{29, 29}})

	// A spent budget still expands a node per tick.
	assert.Empty(t, p.Tick(0))
	assert.Equal(t, 1, p.Pending())

	ticks := 1
	var results []Result[point]
	for len(results) == 0 {
		results = p.Tick(0)
		ticks++
	}
	assert.Greater(t, ticks, 10)
	assert.Equal(t, StatusComplete, results[0].Status)
	assert.Equal(t, uint32(58), results[0].TotalCost)
}

func TestProcessorCancel(t *testing.T) {
	g := newTestGrid(20, 20)
	p := NewProcessor[point](g, manhattan, WithCheckInterval(1))
	active := p.Submit(Request[point]{Start: point{0, 0}, Goal: point{19, 19}})
	queued := p.Submit(Request[point]{Start: point{19, 0}, Goal: point{0, 19}})
	last := p.Submit(Request[point]{Start: point{0, 0}, Goal: point{1, 0}})

	p.Tick(0)
	assert.True(t, p.Cancel(queued))
	assert.True(t, p.Cancel(active))
	assert.False(t, p.Cancel(uuid.New()))
	assert.Equal(t, 1, p.Pending())

	results := p.Tick(time.Second)
	require.Len(t, results, 1)
	assert.Equal(t, last, results[0].ID)
}

func TestProcessorLogsFailures(t *testing.T) {
	logger, hook := quietLogger()
	g := newTestGrid(5, 1, point{3, 0})
	p := NewProcessor[point](g, manhattan, WithLogger(logger))
	p.Submit(Request[point]{Start: point{0, 0}, Goal: point{4, 0}})
	p.Submit(Request[point]{Start: point{0, 0}, Goal: point{2, 0}, Options: []Option{WithMaxExpandedNodes(1)}})

	results := p.Tick(time.Second)
	require.Len(t, results, 2)
	assert.True(t, errors.Is(results[0].Err, ErrNoPathFound))
	assert.True(t, errors.Is(results[1].Err, ErrRunawaySearch))

	levels := map[string]log.Level{}
	for _, e := range hook.AllEntries() {
		levels[e.Message] = e.Level
	}
	assert.Equal(t, log.InfoLevel, levels["path request found no path"])
	assert.Equal(t, log.ErrorLevel, levels["path request failed"])
}

func TestProcessorRunStopsWithContext(t *testing.T) {
	p := NewProcessor[point](newTestGrid(3, 3), manhattan)
	done := make(chan Result[point], 1)
	p.Submit(Request[point]{Start: point{0, 0}, Goal: point{2, 2}, Callback: func(r Result[point]) { done <- r }})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx, rate.NewLimiter(rate.Every(time.Millisecond), 1), time.Millisecond) }()

	// The processor is only touched by the Run goroutine until it returns.
	select {
	case r := <-done:
		assert.Equal(t, StatusComplete, r.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("request not served")
	}
	cancel()
	assert.True(t, errors.Is(<-errc, context.Canceled))
}
