package pathcore

import "math"

// SearchNodeState is the per-query bookkeeping for one node.
type SearchNodeState[NodeType comparable] struct {
	AccumulatedCost uint32 // G
	Heuristic       uint32 // H
	TotalScore      uint32 // F = G + H
	Parent          NodeType
	HasParent       bool
	Closed          bool
	// ExpandOrder is the 1-based position of the node's first expansion,
	// zero while it has not been expanded.
	ExpandOrder uint64
	Generation  uint64
}

func (s *SearchNodeState[NodeType]) setCosts(g, h uint32) {
	s.AccumulatedCost = g
	s.Heuristic = h
	s.TotalScore = addCost(g, h)
}

// addCost adds two costs, saturating at math.MaxUint32.
func addCost(a, b uint32) uint32 {
	if sum := a + b; sum >= a {
		return sum
	}
	return math.MaxUint32
}

// NodeTable maps node identities to their search state.
//
// States are never cleared between queries. Each query bumps the table's
// generation and a state whose Generation is older is treated as untouched.
type NodeTable[NodeType comparable] struct {
	states     map[NodeType]*SearchNodeState[NodeType]
	generation uint64
}

// NewNodeTable returns an empty table.
func NewNodeTable[NodeType comparable]() *NodeTable[NodeType] {
	return &NodeTable[NodeType]{states: make(map[NodeType]*SearchNodeState[NodeType])}
}

// Begin starts a new generation and returns it.
func (t *NodeTable[NodeType]) Begin() uint64 {
	t.generation++
	return t.generation
}

// Generation returns the current generation.
func (t *NodeTable[NodeType]) Generation() uint64 { return t.generation }

// Lookup returns the state of node if it was touched in the current generation.
func (t *NodeTable[NodeType]) Lookup(node NodeType) (*SearchNodeState[NodeType], bool) {
	s, ok := t.states[node]
	if !ok || s.Generation != t.generation {
		return nil, false
	}
	return s, true
}

// Touch returns the state of node, resetting it first when it belongs to an
// older generation. fresh is true when the state was reset or created.
func (t *NodeTable[NodeType]) Touch(node NodeType) (state *SearchNodeState[NodeType], fresh bool) {
	s, ok := t.states[node]
	if !ok {
		s = &SearchNodeState[NodeType]{Generation: t.generation}
		t.states[node] = s
		return s, true
	}
	if s.Generation != t.generation {
		*s = SearchNodeState[NodeType]{Generation: t.generation}
		return s, true
	}
	return s, false
}

// Len returns the number of states held, stale ones included.
func (t *NodeTable[NodeType]) Len() int { return len(t.states) }

// Reset drops every state. The generation keeps counting.
func (t *NodeTable[NodeType]) Reset() {
	clear(t.states)
}

// each calls fn for every state of the current generation.
// The visiting order is unspecified; fn must not depend on it.
func (t *NodeTable[NodeType]) each(fn func(node NodeType, s *SearchNodeState[NodeType])) {
	for node, s := range t.states {
		if s.Generation == t.generation {
			fn(node, s)
		}
	}
}
