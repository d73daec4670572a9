package pathcore

import "github.com/pdrpinto/pathcore/internal/pool"

// DefaultMaxRetainedNodes is the node table size above which a handler drops
// its retained states when a new query begins.
const DefaultMaxRetainedNodes = 1 << 20

// Handler owns the reusable storage for one query at a time: an open list and
// a node table. A handler must not be shared by concurrently running queries;
// give every goroutine its own (see HandlerPool).
type Handler[NodeType comparable] struct {
	heap   *PriorityHeap[NodeType]
	nodes  *NodeTable[NodeType]
	traces *pool.Buckets[NodeType]

	MaxRetainedNodes int
}

// NewHandler returns a handler whose heap starts at heapCapacity entries.
func NewHandler[NodeType comparable](heapCapacity int) *Handler[NodeType] {
	return newHandler(heapCapacity, pool.New[NodeType]())
}

func newHandler[NodeType comparable](heapCapacity int, traces *pool.Buckets[NodeType]) *Handler[NodeType] {
	if heapCapacity <= 0 {
		heapCapacity = DefaultHeapCapacity
	}
	return &Handler[NodeType]{
		heap:             NewPriorityHeap[NodeType](heapCapacity),
		nodes:            NewNodeTable[NodeType](),
		traces:           traces,
		MaxRetainedNodes: DefaultMaxRetainedNodes,
	}
}

// Heap exposes the open list.
func (h *Handler[NodeType]) Heap() *PriorityHeap[NodeType] { return h.heap }

// Nodes exposes the node table.
func (h *Handler[NodeType]) Nodes() *NodeTable[NodeType] { return h.nodes }

// begin prepares the handler for a new query and returns its generation.
// Whatever query held the handler before is invalidated.
func (h *Handler[NodeType]) begin() uint64 {
	h.heap.Clear()
	if h.MaxRetainedNodes > 0 && h.nodes.Len() > h.MaxRetainedNodes {
		h.nodes.Reset()
	}
	return h.nodes.Begin()
}
