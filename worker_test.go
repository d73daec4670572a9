package pathcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveAllKeepsRequestOrder(t *testing.T) {
	g := newTestGrid(16, 16, point{8, 0}, point{8, 1}, point{8, 2}, point{8, 3}, point{8, 4}, point{8, 5})

	var calls atomic.Int32
	requests := make([]Request[point], 0, 20)
	for i := 0; i < 20; i++ {
		requests = append(requests, Request[point]{
			ID:       uuid.New(),
			Start:    point{0, i % 16},
			Goal:     point{15, (i * 7) % 16},
			Callback: func(Result[point]) { calls.Add(1) },
		})
	}

	results, err := SolveAll[point](context.Background(), g, manhattan, requests, 4)
	require.NoError(t, err)
	require.Len(t, results, len(requests))
	assert.Equal(t, int32(len(requests)), calls.Load())

	for i, result := range results {
		request := requests[i]
		assert.Equal(t, request.ID, result.ID)
		require.Equal(t, StatusComplete, result.Status)
		assert.Equal(t, request.Start, result.Path[0])
		assert.Equal(t, request.Goal, result.Path[len(result.Path)-1])

		single, err := Search[point](context.Background(), g, request.Start, request.Goal, manhattan)
		require.NoError(t, err)
		assert.Equal(t, single.TotalCost, result.TotalCost)
		assert.Equal(t, single.Path, result.Path)
	}
}

func TestSolveAllReportsFailuresInResults(t *testing.T) {
	g := newTestGrid(5, 1, point{3, 0})
	requests := []Request[point]{
		{Start: point{0, 0}, Goal: point{2, 0}},
		{Start: point{0, 0}, Goal: point{4, 0}},
		{Start: point{0, 0}, Goal: point{4, 0}, Options: []Option{WithPartialPaths(true)}},
	}

	results, err := SolveAll[point](context.Background(), g, manhattan, requests, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.True(t, errors.Is(results[1].Err, ErrNoPathFound))
	assert.Equal(t, StatusPartial, results[2].Status)
}

func TestSolveAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	requests := []Request[point]{{Start: point{0, 0}, Goal: point{3, 3}}}
	_, err := SolveAll[point](ctx, newTestGrid(4, 4), manhattan, requests, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHandlerPoolSharesTraceBuffers(t *testing.T) {
	p := NewHandlerPool[point](32)
	a := p.Get()
	b := p.Get()
	assert.NotSame(t, a, b)
	assert.Same(t, a.traces, b.traces)
	assert.Equal(t, 32, a.Heap().Cap())
	p.Put(a)
	p.Put(b)
}
