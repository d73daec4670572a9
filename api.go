package pathcore

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Graph is generic over node type N.
// N must be comparable so it can key the node table.
//
// Neighbors must return nodes in a stable order; expansion order, and with it
// the returned path, depends on it.
type Graph[NodeType comparable] interface {
	Neighbors(node NodeType) []Neighbor[NodeType]
}

// Neighbor represents a reachable node with an edge cost.
type Neighbor[NodeType comparable] struct {
	ID   NodeType
	Cost uint32
}

// Heuristic returns the estimated cost from node a to node b.
// It does not have to be strictly admissible.
type Heuristic[NodeType comparable] func(from NodeType, to NodeType) uint32

// Status is the state of a query.
type Status uint8

const (
	StatusNotStarted Status = iota
	StatusExpanding
	StatusComplete
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusExpanding:
		return "expanding"
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further Step calls will change the status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusPartial || s == StatusFailed
}

// Result contains the outcome of a search.
type Result[NodeType comparable] struct {
	ID            uuid.UUID
	Path          []NodeType
	TotalCost     uint32
	ExpandedNodes uint64
	Status        Status
	Err           error
	Duration      time.Duration
}

// Found reports whether the path reaches the requested goal.
func (r Result[NodeType]) Found() bool { return r.Status == StatusComplete }

// Options defines parameters for the search.
type Options struct {
	// PartialPaths returns a path to the node closest to the goal (by
	// heuristic) when the goal is unreachable.
	PartialPaths bool

	// CheckInterval is the number of expansions between deadline checks.
	CheckInterval int

	// MaxExpandedNodes aborts a query that expands more nodes than this.
	MaxExpandedNodes uint64

	// HeapCapacity is the initial open list size of handlers created on demand.
	HeapCapacity int

	// GrowthFactor is applied to the handler's heap when a query starts.
	GrowthFactor float64

	// SliceBudget is the time given to each Step by Search.
	SliceBudget time.Duration

	Logger  log.FieldLogger
	Metrics MetricsCollector
}

const (
	DefaultCheckInterval    = 500
	DefaultMaxExpandedNodes = 1_000_000
	DefaultSliceBudget      = 2 * time.Millisecond
)

func defaultOptions() Options {
	return Options{
		CheckInterval:    DefaultCheckInterval,
		MaxExpandedNodes: DefaultMaxExpandedNodes,
		HeapCapacity:     DefaultHeapCapacity,
		GrowthFactor:     DefaultGrowthFactor,
		SliceBudget:      DefaultSliceBudget,
		Logger:           log.StandardLogger(),
		Metrics:          NoopMetrics{},
	}
}

func buildOptions(options []Option) Options {
	opts := defaultOptions()
	for _, option := range options {
		option(&opts)
	}
	if opts.CheckInterval < 1 {
		opts.CheckInterval = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	return opts
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithPartialPaths enables or disables the closest-node fallback.
func WithPartialPaths(enabled bool) Option {
	return func(options *Options) { options.PartialPaths = enabled }
}

// WithCheckInterval sets how many expansions run between deadline checks.
func WithCheckInterval(n int) Option {
	return func(options *Options) { options.CheckInterval = n }
}

// WithMaxExpandedNodes sets the runaway ceiling.
func WithMaxExpandedNodes(n uint64) Option {
	return func(options *Options) { options.MaxExpandedNodes = n }
}

// WithHeapCapacity sets the initial open list size of handlers created on demand.
func WithHeapCapacity(n int) Option {
	return func(options *Options) { options.HeapCapacity = n }
}

// WithGrowthFactor sets the heap growth factor.
func WithGrowthFactor(f float64) Option {
	return func(options *Options) { options.GrowthFactor = f }
}

// WithSliceBudget sets the per-Step time budget used by Search.
func WithSliceBudget(d time.Duration) Option {
	return func(options *Options) { options.SliceBudget = d }
}

// WithLogger sets the logger used for failures and diagnostics.
func WithLogger(logger log.FieldLogger) Option {
	return func(options *Options) { options.Logger = logger }
}

// WithMetrics sets the collector notified when queries finish.
func WithMetrics(m MetricsCollector) Option {
	return func(options *Options) { options.Metrics = m }
}

// Search runs a query to completion on a fresh handler, giving each Step a
// SliceBudget deadline and checking ctx between steps.
//
// A partial path is not an error. For StatusFailed the returned error is a
// *QueryError wrapping ErrNoPathFound or one of the fatal errors.
func Search[NodeType comparable](
	ctx context.Context,
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
	options ...Option,
) (Result[NodeType], error) {
	opts := buildOptions(options)
	handler := NewHandler[NodeType](opts.HeapCapacity)
	return solve(ctx, handler, graph, startNode, goalNode, heuristic, uuid.Nil, options)
}

func solve[NodeType comparable](
	ctx context.Context,
	handler *Handler[NodeType],
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
	id uuid.UUID,
	options []Option,
) (Result[NodeType], error) {
	stepper := NewStepper(handler, graph, startNode, goalNode, heuristic, options...)
	stepper.ID = id
	for !stepper.Status().Terminal() {
		if err := ctx.Err(); err != nil {
			return stepper.Result(), err
		}
		stepper.Step(time.Now().Add(stepper.opts.SliceBudget))
	}
	result := stepper.Result()
	if result.Status == StatusFailed {
		return result, &QueryError{ID: id, Status: result.Status, Expanded: result.ExpandedNodes, cause: result.Err}
	}
	return result, nil
}
