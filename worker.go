package pathcore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdrpinto/pathcore/internal/pool"
)

// HandlerPool hands out handlers so that each goroutine running queries owns
// its storage. Handlers from the same pool share one trace buffer pool.
type HandlerPool[NodeType comparable] struct {
	pool   sync.Pool
	traces *pool.Buckets[NodeType]
}

// NewHandlerPool creates a pool whose handlers start with heapCapacity entries.
func NewHandlerPool[NodeType comparable](heapCapacity int) *HandlerPool[NodeType] {
	p := &HandlerPool[NodeType]{traces: pool.New[NodeType]()}
	p.pool.New = func() any {
		return newHandler(heapCapacity, p.traces)
	}
	return p
}

// Get returns a handler that no other goroutine is using.
func (p *HandlerPool[NodeType]) Get() *Handler[NodeType] {
	return p.pool.Get().(*Handler[NodeType])
}

// Put returns h once its query is terminal or abandoned.
func (p *HandlerPool[NodeType]) Put(h *Handler[NodeType]) {
	p.pool.Put(h)
}

// Request is one path query.
type Request[NodeType comparable] struct {
	ID       uuid.UUID
	Start    NodeType
	Goal     NodeType
	Options  []Option
	Callback func(Result[NodeType])
}

// SolveAll runs independent requests in parallel on at most workers
// goroutines, each with its own handler. Results are returned in request order.
// An unreachable goal is reported in its Result, not as an error; the returned
// error is non-nil only when ctx is cancelled.
func SolveAll[NodeType comparable](
	ctx context.Context,
	graph Graph[NodeType],
	heuristic Heuristic[NodeType],
	requests []Request[NodeType],
	workers int,
	options ...Option,
) ([]Result[NodeType], error) {
	opts := buildOptions(options)
	handlers := NewHandlerPool[NodeType](opts.HeapCapacity)
	results := make([]Result[NodeType], len(requests))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}
	for i := range requests {
		request := requests[i]
		group.Go(func() error {
			handler := handlers.Get()
			defer handlers.Put(handler)

			merged := append(append([]Option{}, options...), request.Options...)
			result, err := solve(ctx, handler, graph, request.Start, request.Goal, heuristic, request.ID, merged)
			results[i] = result
			if request.Callback != nil {
				request.Callback(result)
			}
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
