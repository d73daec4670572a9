package pathcore

import (
	"fmt"
	"math"
)

const (
	// D is the branching factor of the heap. Four children per slot measured
	// faster than a binary heap for open lists of a few thousand entries.
	D = 4

	// MaxHeapSize is the largest backing array the heap will grow to. An open
	// list this large almost always means the search is looping.
	MaxHeapSize = 1 << 18

	// DefaultGrowthFactor multiplies the backing array length on overflow.
	DefaultGrowthFactor = 2.0

	// DefaultHeapCapacity is the initial backing array length used by handlers.
	DefaultHeapCapacity = 128
)

// HeapEntry is one slot of the open list.
type HeapEntry[NodeType comparable] struct {
	Key       uint32 // total score, lower pops first
	Secondary uint32 // accumulated cost, breaks ties on Key
	Payload   NodeType
}

func (e HeapEntry[NodeType]) less(other HeapEntry[NodeType]) bool {
	if e.Key != other.Key {
		return e.Key < other.Key
	}
	return e.Secondary < other.Secondary
}

// PriorityHeap is a 4-ary min-heap ordered by (Key, Secondary).
//
// Entries are stored by value in a flat array and moved by index arithmetic.
// The backing array is kept across Clear calls so a heap can serve many
// queries without reallocating. It is not safe for concurrent use.
type PriorityHeap[NodeType comparable] struct {
	GrowthFactor float64

	items []HeapEntry[NodeType]
	count int
}

// NewPriorityHeap creates an empty heap with the given initial capacity.
func NewPriorityHeap[NodeType comparable](capacity int) *PriorityHeap[NodeType] {
	if capacity < 0 {
		capacity = 0
	}
	return &PriorityHeap[NodeType]{
		GrowthFactor: DefaultGrowthFactor,
		items:        make([]HeapEntry[NodeType], capacity),
	}
}

// Len returns the number of entries in the heap.
func (h *PriorityHeap[NodeType]) Len() int { return h.count }

// Cap returns the length of the backing array.
func (h *PriorityHeap[NodeType]) Cap() int { return len(h.items) }

// Insert adds an entry and returns the slot it settled in. The slot is only
// meaningful until the next mutation of the heap.
//
// Insert fails with ErrCapacityExceeded when growing the backing array would
// take it past MaxHeapSize; the entry is not added in that case.
func (h *PriorityHeap[NodeType]) Insert(key, secondary uint32, payload NodeType) (int, error) {
	if h.count == len(h.items) {
		if err := h.grow(); err != nil {
			return -1, err
		}
	}

	entry := HeapEntry[NodeType]{Key: key, Secondary: secondary, Payload: payload}
	i := h.count
	h.count++
	for i > 0 {
		parent := (i - 1) / D
		if !entry.less(h.items[parent]) {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = entry
	return i, nil
}

func (h *PriorityHeap[NodeType]) grow() error {
	size := len(h.items)
	newSize := max(size+4, int(math.Round(float64(size)*h.GrowthFactor)))
	if newSize > MaxHeapSize {
		return fmt.Errorf("%w: growing to %d entries (limit %d)", ErrCapacityExceeded, newSize, MaxHeapSize)
	}
	items := make([]HeapEntry[NodeType], newSize)
	copy(items, h.items[:h.count])
	h.items = items
	return nil
}

// ExtractMin removes and returns the smallest entry.
// Calling it on an empty heap is a programming error and panics.
func (h *PriorityHeap[NodeType]) ExtractMin() HeapEntry[NodeType] {
	if h.count == 0 {
		panic("pathcore: ExtractMin called on an empty heap")
	}
	top := h.items[0]
	h.count--
	last := h.items[h.count]
	h.items[h.count] = HeapEntry[NodeType]{}
	if h.count > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return top
}

// Peek returns the smallest entry without removing it.
func (h *PriorityHeap[NodeType]) Peek() (HeapEntry[NodeType], bool) {
	if h.count == 0 {
		return HeapEntry[NodeType]{}, false
	}
	return h.items[0], true
}

// At returns the entry stored in slot i, 0 <= i < Len.
func (h *PriorityHeap[NodeType]) At(i int) HeapEntry[NodeType] {
	if i < 0 || i >= h.count {
		panic(fmt.Sprintf("pathcore: heap slot %d out of range [0,%d)", i, h.count))
	}
	return h.items[i]
}

// Rekey overwrites the keys of slot i without restoring heap order.
// Call Rebuild once all keys have been changed.
func (h *PriorityHeap[NodeType]) Rekey(i int, key, secondary uint32) {
	if i < 0 || i >= h.count {
		panic(fmt.Sprintf("pathcore: heap slot %d out of range [0,%d)", i, h.count))
	}
	h.items[i].Key = key
	h.items[i].Secondary = secondary
}

// Rebuild restores heap order over all entries in O(n). It is cheaper than
// per-entry decrease-key when many keys changed at once.
func (h *PriorityHeap[NodeType]) Rebuild() {
	if h.count < 2 {
		return
	}
	for i := (h.count - 2) / D; i >= 0; i-- {
		h.siftDown(i)
	}
}

// Clear empties the heap. The backing array is retained.
func (h *PriorityHeap[NodeType]) Clear() {
	h.count = 0
}

func (h *PriorityHeap[NodeType]) siftDown(i int) {
	entry := h.items[i]
	for {
		first := i*D + 1
		if first >= h.count {
			break
		}
		best := first
		end := min(first+D, h.count)
		for c := first + 1; c < end; c++ {
			if h.items[c].less(h.items[best]) {
				best = c
			}
		}
		if !h.items[best].less(entry) {
			break
		}
		h.items[i] = h.items[best]
		i = best
	}
	h.items[i] = entry
}
