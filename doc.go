// Package pathcore provides a time-sliced A* search for game-style path queries.
//
// It exposes three entry points:
//
//   - Search: run a query to completion and get a Result.
//   - Stepper: advance a query a bounded amount of work per call, e.g. once
//     per frame, with a closest-node fallback when the goal is unreachable.
//   - Processor / SolveAll: queue many requests on one goroutine, or spread
//     them over several goroutines, each with its own Handler.
//
// The open list is a 4-ary heap ordered by (total score, accumulated cost).
// Per-node state lives in a NodeTable that is invalidated by a generation
// counter, so a Handler can serve query after query without clearing it.
//
// Package funnel turns the node corridor of a result into a taut polyline.
package pathcore
