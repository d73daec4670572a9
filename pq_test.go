package pathcore

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(h *PriorityHeap[int]) []HeapEntry[int] {
	var out []HeapEntry[int]
	for h.Len() > 0 {
		out = append(out, h.ExtractMin())
	}
	return out
}

func assertOrdered(t *testing.T, entries []HeapEntry[int]) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		ok := prev.Key < cur.Key || (prev.Key == cur.Key && prev.Secondary <= cur.Secondary)
		require.Truef(t, ok, "entry %d (%d,%d) popped after (%d,%d)", i, cur.Key, cur.Secondary, prev.Key, prev.Secondary)
	}
}

func TestPriorityHeapOrder(t *testing.T) {
	h := NewPriorityHeap[int](4)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		_, err := h.Insert(uint32(r.Intn(50)), uint32(r.Intn(10)), i)
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, h.Len())

	entries := drain(h)
	assert.Len(t, entries, 1000)
	assertOrdered(t, entries)
	assert.Equal(t, 0, h.Len())
}

func TestPriorityHeapSecondaryBreaksTies(t *testing.T) {
	h := NewPriorityHeap[int](8)
	h.Insert(5, 3, 1)
	h.Insert(5, 1, 2)
	h.Insert(4, 9, 3)
	h.Insert(5, 2, 4)

	var payloads []int
	for _, e := range drain(h) {
		payloads = append(payloads, e.Payload)
	}
	assert.Equal(t, []int{3, 2, 4, 1}, payloads)
}

func TestPriorityHeapInsertReturnsSlot(t *testing.T) {
	h := NewPriorityHeap[int](8)
	for i := 0; i < 6; i++ {
		slot, err := h.Insert(uint32(10-i), 0, i)
		require.NoError(t, err)
		assert.Equal(t, i, h.At(slot).Payload)
	}
	top, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 5, top.Payload)
}

func TestPriorityHeapGrowth(t *testing.T) {
	h := NewPriorityHeap[int](2)
	h.GrowthFactor = 1.5
	for i := 0; i < 3; i++ {
		_, err := h.Insert(uint32(i), 0, i)
		require.NoError(t, err)
	}
	// max(2+4, round(2*1.5))
	assert.Equal(t, 6, h.Cap())

	for i := 3; i < 7; i++ {
		h.Insert(uint32(i), 0, i)
	}
	// max(6+4, round(6*1.5))
	assert.Equal(t, 10, h.Cap())

	zero := NewPriorityHeap[int](0)
	_, err := zero.Insert(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, zero.Cap())
}

func TestPriorityHeapCapacityCeiling(t *testing.T) {
	h := NewPriorityHeap[int](16)
	for i := 0; i < MaxHeapSize; i++ {
		_, err := h.Insert(uint32(i%97), 0, i)
		require.NoError(t, err)
	}
	assert.Equal(t, MaxHeapSize, h.Cap())

	slot, err := h.Insert(0, 0, -1)
	assert.Equal(t, -1, slot)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, MaxHeapSize, h.Len())
}

func TestPriorityHeapClearKeepsStorage(t *testing.T) {
	h := NewPriorityHeap[int](4)
	for i := 0; i < 20; i++ {
		h.Insert(uint32(i), 0, i)
	}
	capacity := h.Cap()

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, capacity, h.Cap())
	_, ok := h.Peek()
	assert.False(t, ok)

	h.Insert(3, 0, 3)
	h.Insert(1, 0, 1)
	assert.Equal(t, 1, h.ExtractMin().Payload)
	assert.Equal(t, capacity, h.Cap())
}

func TestPriorityHeapRebuild(t *testing.T) {
	h := NewPriorityHeap[int](8)
	for i := 0; i < 200; i++ {
		h.Insert(uint32(i), uint32(i), i)
	}
	// Reverse every key, then restore order in one pass.
	for i := 0; i < h.Len(); i++ {
		e := h.At(i)
		h.Rekey(i, uint32(1000-e.Payload), e.Secondary)
	}
	h.Rebuild()

	entries := drain(h)
	assertOrdered(t, entries)
	assert.Equal(t, 199, entries[0].Payload)
	assert.Equal(t, 0, entries[len(entries)-1].Payload)
}

func TestPriorityHeapExtractMinEmptyPanics(t *testing.T) {
	h := NewPriorityHeap[int](1)
	assert.Panics(t, func() { h.ExtractMin() })

	h.Insert(1, 1, 1)
	h.ExtractMin()
	assert.Panics(t, func() { h.ExtractMin() })
	assert.Panics(t, func() { h.At(0) })
}
