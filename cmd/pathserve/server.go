package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lonng/nex"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/config"
	"github.com/pdrpinto/pathcore/funnel"
	"github.com/pdrpinto/pathcore/gridgraph"
	"github.com/pdrpinto/pathcore/metrics"
)

// maxRetained bounds the finished queries kept for GET /v1/queries/{id}.
const maxRetained = 1024

var (
	errInvalidID    = errors.New("invalid query id")
	errUnknownQuery = errors.New("unknown query")
	errNoWalkable   = errors.New("grid has no walkable cell")
)

type submitRequest struct {
	Start   funnel.Vec3 `json:"start"`
	Goal    funnel.Vec3 `json:"goal"`
	Partial bool        `json:"partial"`
}

type queryView struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Start    [2]int        `json:"start"`
	Goal     [2]int        `json:"goal"`
	Cost     uint32        `json:"cost"`
	Expanded uint64        `json:"expanded"`
	Cells    [][2]int      `json:"cells,omitempty"`
	Points   []funnel.Vec3 `json:"points,omitempty"`
}

type mapView struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Diagonal bool     `json:"diagonal"`
	Walls    [][2]int `json:"walls"`
}

type query struct {
	view       queryView
	start, end funnel.Vec3
}

// server owns one Processor. Every access to it, including the tick loop,
// happens under mu.
type server struct {
	mu        sync.Mutex
	grid      *gridgraph.Grid
	processor *pathcore.Processor[gridgraph.Cell]
	corridor  *funnel.Corridor[gridgraph.Cell]
	logger    log.FieldLogger

	queries  map[uuid.UUID]*query
	finished []uuid.UUID
}

func newServer(grid *gridgraph.Grid, cfg config.Config, logger log.FieldLogger, collector *metrics.Prometheus) *server {
	options := cfg.Options(logger)
	funnelOptions := cfg.FunnelOptions(logger)
	if collector != nil {
		options = append(options, pathcore.WithMetrics(collector))
		funnelOptions = append(funnelOptions, funnel.WithRecorder(collector))
	}
	return &server{
		grid:      grid,
		processor: pathcore.NewProcessor[gridgraph.Cell](grid, grid.Heuristic(), options...),
		corridor:  funnel.NewCorridor[gridgraph.Cell](grid, funnel.New(funnelOptions...)),
		logger:    logger,
		queries:   make(map[uuid.UUID]*query),
	}
}

func (s *server) routes(router *mux.Router) {
	router.Handle("/v1/map", nex.Handler(s.mapInfo)).Methods("GET")
	router.Handle("/v1/queries", nex.Handler(s.submit)).Methods("POST")
	router.Handle("/v1/queries/{id}", nex.Handler(s.query)).Methods("GET")
	router.Handle("/v1/queries/{id}", nex.Handler(s.cancel)).Methods("DELETE")
}

func (s *server) run(ctx context.Context, limiter *rate.Limiter, budget time.Duration) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		s.tick(budget)
	}
}

func (s *server) tick(budget time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processor.Tick(budget)
}

func (s *server) mapInfo(r *http.Request) (*mapView, error) {
	view := &mapView{Width: s.grid.Width, Height: s.grid.Height, Diagonal: s.grid.Diagonal}
	view.Walls = make([][2]int, 0, s.grid.Walls())
	for y := 0; y < s.grid.Height; y++ {
		for x := 0; x < s.grid.Width; x++ {
			if !s.grid.Walkable(gridgraph.Cell{X: x, Y: y}) {
				view.Walls = append(view.Walls, [2]int{x, y})
			}
		}
	}
	return view, nil
}

// submit snaps both endpoints to the nearest walkable cell and queues the query.
func (s *server) submit(req *submitRequest) (*queryView, error) {
	startCell, startPoint, ok := s.grid.Nearest(req.Start)
	if !ok {
		return nil, errNoWalkable
	}
	goalCell, goalPoint, _ := s.grid.Nearest(req.Goal)

	var options []pathcore.Option
	if req.Partial {
		options = append(options, pathcore.WithPartialPaths(true))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.processor.Submit(pathcore.Request[gridgraph.Cell]{
		Start:    startCell,
		Goal:     goalCell,
		Options:  options,
		Callback: s.done,
	})
	q := &query{start: startPoint, end: goalPoint}
	q.view = queryView{
		ID:     id.String(),
		Status: "queued",
		Start:  [2]int{startCell.X, startCell.Y},
		Goal:   [2]int{goalCell.X, goalCell.Y},
	}
	s.queries[id] = q
	view := q.view
	return &view, nil
}

func (s *server) query(r *http.Request) (*queryView, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, errInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, errUnknownQuery
	}
	view := q.view
	return &view, nil
}

func (s *server) cancel(r *http.Request) (*queryView, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, errInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, errUnknownQuery
	}
	if s.processor.Cancel(id) {
		q.view.Status = "cancelled"
		s.retire(id)
	}
	view := q.view
	return &view, nil
}

// done runs inside Tick, with mu held.
func (s *server) done(result pathcore.Result[gridgraph.Cell]) {
	q, ok := s.queries[result.ID]
	if !ok {
		return
	}
	q.view.Status = result.Status.String()
	q.view.Cost = result.TotalCost
	q.view.Expanded = result.ExpandedNodes
	if result.Err != nil {
		q.view.Error = result.Err.Error()
	}
	if len(result.Path) > 0 {
		for _, cell := range result.Path {
			q.view.Cells = append(q.view.Cells, [2]int{cell.X, cell.Y})
		}
		end := q.end
		if result.Status == pathcore.StatusPartial {
			end = s.grid.Position(result.Path[len(result.Path)-1])
		}
		q.view.Points, _ = s.corridor.Path(result.Path, q.start, end)
	}
	s.logger.WithFields(log.Fields{
		"query":    result.ID,
		"status":   result.Status,
		"expanded": result.ExpandedNodes,
	}).Debug("query served")
	s.retire(result.ID)
}

func (s *server) retire(id uuid.UUID) {
	s.finished = append(s.finished, id)
	for len(s.finished) > maxRetained {
		delete(s.queries, s.finished[0])
		s.finished = s.finished[1:]
	}
}
