package pathcore

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultFrameBudget is the time a Processor spends per Tick by default.
const DefaultFrameBudget = 2 * time.Millisecond

// Processor is a single-threaded path queue. Requests are served first in,
// first out on one handler; each Tick advances the active query until the
// frame budget is spent, starting the next request whenever one finishes.
//
// A Processor is not safe for concurrent use. Run one per goroutine.
type Processor[NodeType comparable] struct {
	graph     Graph[NodeType]
	heuristic Heuristic[NodeType]
	handler   *Handler[NodeType]
	options   []Option
	logger    log.FieldLogger

	queue  []Request[NodeType]
	active *Stepper[NodeType]
	req    Request[NodeType]
}

// NewProcessor creates a processor. options apply to every request and are
// extended by Request.Options.
func NewProcessor[NodeType comparable](
	graph Graph[NodeType],
	heuristic Heuristic[NodeType],
	options ...Option,
) *Processor[NodeType] {
	opts := buildOptions(options)
	return &Processor[NodeType]{
		graph:     graph,
		heuristic: heuristic,
		handler:   NewHandler[NodeType](opts.HeapCapacity),
		options:   options,
		logger:    opts.Logger,
	}
}

// Submit queues a request and returns its id. A nil ID is replaced by a new one.
func (p *Processor[NodeType]) Submit(request Request[NodeType]) uuid.UUID {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	p.queue = append(p.queue, request)
	p.logger.WithField("query", request.ID).Debug("path request queued")
	return request.ID
}

// Pending returns the number of requests not yet finished.
func (p *Processor[NodeType]) Pending() int {
	n := len(p.queue)
	if p.active != nil {
		n++
	}
	return n
}

// Idle reports whether there is nothing left to do.
func (p *Processor[NodeType]) Idle() bool { return p.Pending() == 0 }

// Cancel drops a queued or active request. It returns false if id is unknown.
func (p *Processor[NodeType]) Cancel(id uuid.UUID) bool {
	if p.active != nil && p.req.ID == id {
		p.active = nil
		return true
	}
	for i, request := range p.queue {
		if request.ID == id {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Tick works for at most budget (plus one check interval of overrun) and
// returns the results of the requests that finished during the tick.
func (p *Processor[NodeType]) Tick(budget time.Duration) []Result[NodeType] {
	deadline := time.Now().Add(budget)
	var finished []Result[NodeType]
	for {
		if p.active == nil {
			if len(p.queue) == 0 {
				return finished
			}
			p.req = p.queue[0]
			p.queue[0] = Request[NodeType]{}
			p.queue = p.queue[1:]
			merged := append(append([]Option{}, p.options...), p.req.Options...)
			p.active = NewStepper(p.handler, p.graph, p.req.Start, p.req.Goal, p.heuristic, merged...)
			p.active.ID = p.req.ID
		}

		status := p.active.Step(deadline)
		if !status.Terminal() {
			return finished
		}

		result := p.active.Result()
		p.active = nil
		if result.Status == StatusFailed {
			entry := p.logger.WithField("query", result.ID).WithField("expanded", result.ExpandedNodes)
			if IsFatal(result.Err) {
				entry.WithError(result.Err).Error("path request failed")
			} else {
				entry.WithError(result.Err).Info("path request found no path")
			}
		}
		if p.req.Callback != nil {
			p.req.Callback(result)
		}
		finished = append(finished, result)

		if !time.Now().Before(deadline) {
			return finished
		}
	}
}

// Run ticks once per limiter event until ctx is done. The limiter sets the
// frame rate; budget is the work allowed per frame.
func (p *Processor[NodeType]) Run(ctx context.Context, limiter *rate.Limiter, budget time.Duration) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		p.Tick(budget)
	}
}

// Flush ticks like Run but returns once every queued request has finished.
func (p *Processor[NodeType]) Flush(ctx context.Context, limiter *rate.Limiter, budget time.Duration) ([]Result[NodeType], error) {
	var results []Result[NodeType]
	for !p.Idle() {
		if err := limiter.Wait(ctx); err != nil {
			return results, err
		}
		results = append(results, p.Tick(budget)...)
	}
	return results, nil
}
