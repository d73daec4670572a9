package pathcore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrCapacityExceeded is returned when the open list would grow past MaxHeapSize.
	ErrCapacityExceeded = errors.New("pathcore: heap capacity exceeded")

	// ErrRunawaySearch is returned when a query expands more nodes than
	// Options.MaxExpandedNodes allows.
	ErrRunawaySearch = errors.New("pathcore: node expansion limit exceeded")

	// ErrNoPathFound reports that the open list ran dry before reaching the goal.
	ErrNoPathFound = errors.New("no path found")

	// ErrHandlerReused is returned by a stepper whose handler has since been
	// initialized by another query.
	ErrHandlerReused = errors.New("pathcore: handler reused by another query")
)

// IsFatal reports whether err signals a broken graph, heuristic or caller
// rather than an ordinary unreachable goal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrRunawaySearch) ||
		errors.Is(err, ErrHandlerReused)
}

// QueryError describes a failed query.
//
// The underlying cause can be inspected with errors.Is / errors.Unwrap.
type QueryError struct {
	ID       uuid.UUID
	Status   Status
	Expanded uint64
	cause    error
}

func (e *QueryError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("query %s after %d expansions: %v", e.Status, e.Expanded, e.cause)
	}
	return fmt.Sprintf("query %s %s after %d expansions: %v", e.ID, e.Status, e.Expanded, e.cause)
}

func (e *QueryError) Unwrap() error { return e.cause }
