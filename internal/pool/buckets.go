// Package pool provides free lists of slices bucketed by power-of-two capacity.
package pool

import (
	"math/bits"
	"sync"
)

const (
	// NumBuckets bounds the largest pooled capacity to 1<<(NumBuckets-1).
	NumBuckets = 24

	// MaxPerBucket is the number of idle slices kept per bucket.
	MaxPerBucket = 32
)

// Buckets is a mutex-guarded set of free lists. Bucket k holds slices whose
// capacity is at least 1<<k. The zero value is ready to use; a nil *Buckets
// allocates on every Get and drops every Put.
type Buckets[T any] struct {
	mu   sync.Mutex
	free [NumBuckets][][]T
}

// New returns an empty bucket pool.
func New[T any]() *Buckets[T] {
	return &Buckets[T]{}
}

// Get returns an empty slice with capacity of at least n.
func (b *Buckets[T]) Get(n int) []T {
	if n < 1 {
		n = 1
	}
	k := bits.Len(uint(n - 1))
	if b == nil || k >= NumBuckets {
		return make([]T, 0, n)
	}

	b.mu.Lock()
	list := b.free[k]
	if last := len(list) - 1; last >= 0 {
		s := list[last]
		list[last] = nil
		b.free[k] = list[:last]
		b.mu.Unlock()
		return s
	}
	b.mu.Unlock()

	return make([]T, 0, 1<<k)
}

// Put hands s back for reuse. The caller must not touch s afterwards.
func (b *Buckets[T]) Put(s []T) {
	c := cap(s)
	if b == nil || c == 0 {
		return
	}
	k := bits.Len(uint(c)) - 1
	if k >= NumBuckets {
		return
	}
	clear(s[:c])
	s = s[:0]

	b.mu.Lock()
	if len(b.free[k]) < MaxPerBucket {
		b.free[k] = append(b.free[k], s)
	}
	b.mu.Unlock()
}

// Idle returns the number of slices waiting in bucket k.
func (b *Buckets[T]) Idle(k int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.free[k])
}
