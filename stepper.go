package pathcore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/pathcore/internal"
)

// Stepper is a time-sliced A* query.
//
// Call Initialize once (Step does it implicitly) and then Step repeatedly,
// typically once per frame, until Status().Terminal(). Between calls the open
// list and node table hold a consistent snapshot, so a caller may stop at any
// Step boundary and simply drop the Stepper.
type Stepper[NodeType comparable] struct {
	ID uuid.UUID

	handler   *Handler[NodeType]
	graph     Graph[NodeType]
	heuristic Heuristic[NodeType]
	start     NodeType
	goal      NodeType
	opts      Options
	onExpand  func(NodeType)

	generation uint64
	status     Status
	err        error

	// current has been popped and waits for expansion.
	current NodeType

	best      NodeType
	bestScore uint32

	expanded uint64
	path     []NodeType
	cost     uint32

	startedAt time.Time
	duration  time.Duration
}

// NewStepper creates a query on handler. The handler must not serve another
// query until this one is terminal or abandoned.
func NewStepper[NodeType comparable](
	handler *Handler[NodeType],
	graph Graph[NodeType],
	startNode NodeType,
	goalNode NodeType,
	heuristic Heuristic[NodeType],
	options ...Option,
) *Stepper[NodeType] {
	return &Stepper[NodeType]{
		handler:   handler,
		graph:     graph,
		heuristic: heuristic,
		start:     startNode,
		goal:      goalNode,
		opts:      buildOptions(options),
	}
}

// OnExpand registers fn to be called with every node as it is expanded.
func (s *Stepper[NodeType]) OnExpand(fn func(NodeType)) { s.onExpand = fn }

// Status returns the current status.
func (s *Stepper[NodeType]) Status() Status { return s.status }

// Err returns the error of a failed query.
func (s *Stepper[NodeType]) Err() error { return s.err }

// Expanded returns the number of nodes expanded so far.
func (s *Stepper[NodeType]) Expanded() uint64 { return s.expanded }

// Goal returns the current goal.
func (s *Stepper[NodeType]) Goal() NodeType { return s.goal }

func (s *Stepper[NodeType]) logger() log.FieldLogger {
	return s.opts.Logger.WithField("query", s.ID)
}

// Initialize seeds the start node and expands it.
func (s *Stepper[NodeType]) Initialize() Status {
	if s.status != StatusNotStarted {
		return s.status
	}
	s.startedAt = time.Now()
	s.generation = s.handler.begin()
	if s.opts.GrowthFactor > 0 {
		s.handler.heap.GrowthFactor = s.opts.GrowthFactor
	}

	state, _ := s.handler.nodes.Touch(s.start)
	state.setCosts(0, s.heuristic(s.start, s.goal))
	s.best, s.bestScore = s.start, state.Heuristic

	s.expanded++
	state.ExpandOrder = s.expanded
	if s.onExpand != nil {
		s.onExpand(s.start)
	}
	if s.start == s.goal {
		s.complete(s.start, state)
		return s.status
	}

	s.status = StatusExpanding
	if !s.expand(s.start, state) {
		return s.status
	}
	if !s.popNext() {
		s.exhausted()
	}
	return s.status
}

// Step expands nodes until the query finishes or deadline passes. The zero
// deadline means no limit. The clock is read once every CheckInterval
// expansions, so a step may overrun deadline by that many expansions.
func (s *Stepper[NodeType]) Step(deadline time.Time) Status {
	if s.status == StatusNotStarted {
		if s.Initialize().Terminal() {
			return s.status
		}
	}
	if s.status != StatusExpanding {
		return s.status
	}
	if s.handler.nodes.Generation() != s.generation {
		s.fail(ErrHandlerReused)
		return s.status
	}

	counter := 0
	for {
		node := s.current
		state, _ := s.handler.nodes.Lookup(node)

		s.expanded++
		if state.ExpandOrder == 0 {
			state.ExpandOrder = s.expanded
		}
		if s.onExpand != nil {
			s.onExpand(node)
		}
		if node == s.goal {
			s.complete(node, state)
			return s.status
		}
		if state.Heuristic < s.bestScore {
			s.best, s.bestScore = node, state.Heuristic
		}
		if s.expanded > s.opts.MaxExpandedNodes {
			s.fail(fmt.Errorf("%w: %d nodes", ErrRunawaySearch, s.expanded))
			return s.status
		}

		if !s.expand(node, state) {
			return s.status
		}
		if !s.popNext() {
			s.exhausted()
			return s.status
		}

		counter++
		if counter >= s.opts.CheckInterval {
			counter = 0
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				return s.status
			}
		}
	}
}

// expand relaxes every edge leaving node. It returns false if the query
// failed while doing so.
func (s *Stepper[NodeType]) expand(node NodeType, state *SearchNodeState[NodeType]) bool {
	state.Closed = true
	for _, neighbor := range s.graph.Neighbors(node) {
		tentative := addCost(state.AccumulatedCost, neighbor.Cost)
		next, fresh := s.handler.nodes.Touch(neighbor.ID)
		if !fresh && tentative >= next.AccumulatedCost {
			continue
		}

		h := next.Heuristic
		if fresh {
			h = s.heuristic(neighbor.ID, s.goal)
		}
		next.setCosts(tentative, h)
		next.Parent = node
		next.HasParent = true
		next.Closed = false

		if _, err := s.handler.heap.Insert(next.TotalScore, next.AccumulatedCost, neighbor.ID); err != nil {
			s.fail(err)
			return false
		}
	}
	return true
}

// popNext moves the best live entry into current. Entries left behind by a
// later cost improvement, or for nodes already expanded, are discarded.
func (s *Stepper[NodeType]) popNext() bool {
	heap := s.handler.heap
	for heap.Len() > 0 {
		entry := heap.ExtractMin()
		state, ok := s.handler.nodes.Lookup(entry.Payload)
		if !ok || state.Closed || entry.Secondary != state.AccumulatedCost {
			continue
		}
		s.current = entry.Payload
		return true
	}
	return false
}

// Retarget switches the goal of a running query. The heuristic of every node
// touched so far is recomputed, the node waiting for expansion goes back into
// the open list and the open list is rebuilt in one pass. The partial-path
// fallback is re-chosen among all expanded nodes for the new goal.
func (s *Stepper[NodeType]) Retarget(goal NodeType) {
	if s.status == StatusNotStarted {
		s.goal = goal
		return
	}
	if s.status != StatusExpanding || goal == s.goal {
		return
	}
	if s.handler.nodes.Generation() != s.generation {
		s.fail(ErrHandlerReused)
		return
	}
	s.goal = goal

	var bestOrder uint64
	s.handler.nodes.each(func(node NodeType, state *SearchNodeState[NodeType]) {
		state.setCosts(state.AccumulatedCost, s.heuristic(node, goal))
		if state.ExpandOrder == 0 {
			return
		}
		if bestOrder == 0 || state.Heuristic < s.bestScore ||
			(state.Heuristic == s.bestScore && state.ExpandOrder < bestOrder) {
			s.best, s.bestScore, bestOrder = node, state.Heuristic, state.ExpandOrder
		}
	})

	heap := s.handler.heap
	for i := 0; i < heap.Len(); i++ {
		entry := heap.At(i)
		state, _ := s.handler.nodes.Lookup(entry.Payload)
		heap.Rekey(i, addCost(entry.Secondary, state.Heuristic), entry.Secondary)
	}
	current, _ := s.handler.nodes.Lookup(s.current)
	if _, err := heap.Insert(current.TotalScore, current.AccumulatedCost, s.current); err != nil {
		s.fail(err)
		return
	}
	heap.Rebuild()

	if !s.popNext() {
		s.exhausted()
	}
}

// Trace walks parent links from node back to the start and returns the
// nodes in start-to-node order. It returns nil once the handler serves
// another query.
func (s *Stepper[NodeType]) Trace(node NodeType) []NodeType {
	if s.handler.nodes.Generation() != s.generation {
		return nil
	}
	buf := s.handler.traces.Get(64)
	limit := s.handler.nodes.Len()
	for {
		buf = append(buf, node)
		state, ok := s.handler.nodes.Lookup(node)
		if !ok || !state.HasParent || len(buf) > limit {
			break
		}
		node = state.Parent
	}
	path := internal.ReversedCopy(buf)
	s.handler.traces.Put(buf)
	return path
}

// Result returns a snapshot of the query outcome.
func (s *Stepper[NodeType]) Result() Result[NodeType] {
	return Result[NodeType]{
		ID:            s.ID,
		Path:          s.path,
		TotalCost:     s.cost,
		ExpandedNodes: s.expanded,
		Status:        s.status,
		Err:           s.err,
		Duration:      s.duration,
	}
}

func (s *Stepper[NodeType]) complete(node NodeType, state *SearchNodeState[NodeType]) {
	s.path = s.Trace(node)
	s.cost = state.AccumulatedCost
	s.finish(StatusComplete)
}

// exhausted handles an empty open list.
func (s *Stepper[NodeType]) exhausted() {
	if !s.opts.PartialPaths {
		s.err = ErrNoPathFound
		s.finish(StatusFailed)
		return
	}
	state, _ := s.handler.nodes.Lookup(s.best)
	s.path = s.Trace(s.best)
	s.cost = state.AccumulatedCost
	s.finish(StatusPartial)
}

func (s *Stepper[NodeType]) fail(err error) {
	s.err = err
	s.path = nil
	s.logger().WithField("expanded", s.expanded).WithError(err).Error("path query aborted")
	s.finish(StatusFailed)
}

func (s *Stepper[NodeType]) finish(status Status) {
	s.status = status
	s.duration = time.Since(s.startedAt)
	s.logger().WithFields(log.Fields{
		"status":   status,
		"expanded": s.expanded,
	}).Debug("path query finished")
	s.opts.Metrics.RecordQuery(status.String(), s.expanded, s.duration)
}
