package internal

// ReversedCopy returns a new slice holding the elements of s in reverse order.
func ReversedCopy[T any](s []T) []T {
	out := make([]T, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
