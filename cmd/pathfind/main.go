package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/config"
	"github.com/pdrpinto/pathcore/funnel"
	"github.com/pdrpinto/pathcore/gridgraph"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "pathfind"
	app.Version = "0.1.0"
	app.Usage = "run time-sliced grid path queries and pull the result taut"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "map, m",
			Usage: "ASCII map `FILE` ('.', '#', 'S', 'G')",
		},
		cli.StringFlag{
			Name:  "random, r",
			Value: "40,24",
			Usage: "size `W,H` of a generated map when --map is not given",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "seed for generated maps and random queries",
		},
		cli.StringFlag{
			Name:  "from",
			Usage: "start cell `X,Y` (overrides the map's S marker)",
		},
		cli.StringFlag{
			Name:  "to",
			Usage: "goal cell `X,Y` (overrides the map's G marker)",
		},
		cli.BoolFlag{
			Name:  "partial",
			Usage: "return a path to the closest reachable cell when the goal is unreachable",
		},
		cli.BoolFlag{
			Name:  "diagonal",
			Usage: "allow diagonal moves",
		},
		cli.IntFlag{
			Name:  "count, n",
			Value: 1,
			Usage: "number of random queries to solve in parallel instead of a single one",
		},
		cli.BoolFlag{
			Name:  "render",
			Usage: "print the map with the path marked",
		},
		cli.BoolFlag{
			Name:  "cpuprofile",
			Usage: "enable cpu profile",
		},
	}

	app.Action = run
	return app
}

type output struct {
	ID       string        `json:"id,omitempty"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Cost     uint32        `json:"cost"`
	Expanded uint64        `json:"expanded"`
	Duration string        `json:"duration"`
	Cells    [][2]int      `json:"cells,omitempty"`
	Points   []funnel.Vec3 `json:"points,omitempty"`
	Pulled   bool          `json:"pulled"`
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("partial") {
		cfg.Search.PartialPaths = true
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	if c.Bool("cpuprofile") {
		filename := fmt.Sprintf("cpuprofile-%d.pprof", time.Now().Unix())
		f, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	m, err := loadMap(c)
	if err != nil {
		return err
	}
	options := cfg.Options(logger)
	corridor := funnel.NewCorridor[gridgraph.Cell](m.Grid, funnel.New(cfg.FunnelOptions(logger)...))

	if n := c.Int("count"); n > 1 {
		return solveRandom(c, cfg, m.Grid, corridor, n, options)
	}

	if v := c.String("from"); v != "" {
		if m.Start, err = parseCell(v); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		m.HasStart = true
	}
	if v := c.String("to"); v != "" {
		if m.Goal, err = parseCell(v); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		m.HasGoal = true
	}
	if !m.HasStart || !m.HasGoal {
		return fmt.Errorf("need a start and a goal: use S/G markers or --from/--to")
	}
	for _, cell := range []gridgraph.Cell{m.Start, m.Goal} {
		if !m.Walkable(cell) {
			return fmt.Errorf("cell %d,%d is not walkable", cell.X, cell.Y)
		}
	}

	processor := pathcore.NewProcessor[gridgraph.Cell](m.Grid, m.Heuristic(), options...)
	id := processor.Submit(pathcore.Request[gridgraph.Cell]{Start: m.Start, Goal: m.Goal})
	logger.WithField("query", id).Infof("searching %d,%d -> %d,%d", m.Start.X, m.Start.Y, m.Goal.X, m.Goal.Y)

	limiter := rate.NewLimiter(rate.Limit(cfg.Processor.FPS), 1)
	results, err := processor.Flush(context.Background(), limiter, cfg.Processor.FrameBudget)
	if err != nil {
		return err
	}
	out := describe(results[0], m.Grid, corridor, m.Start, m.Goal)
	if c.Bool("render") {
		fmt.Print(m.Render(results[0].Path))
	}
	return printJSON(out)
}

func solveRandom(c *cli.Context, cfg config.Config, g *gridgraph.Grid, corridor *funnel.Corridor[gridgraph.Cell], n int, options []pathcore.Option) error {
	r := rand.New(rand.NewSource(c.Int64("seed")))
	requests := make([]pathcore.Request[gridgraph.Cell], 0, n)
	for len(requests) < n {
		start := gridgraph.Cell{X: r.Intn(g.Width), Y: r.Intn(g.Height)}
		goal := gridgraph.Cell{X: r.Intn(g.Width), Y: r.Intn(g.Height)}
		if !g.Walkable(start) || !g.Walkable(goal) {
			continue
		}
		requests = append(requests, pathcore.Request[gridgraph.Cell]{Start: start, Goal: goal})
	}

	metrics := &pathcore.BasicMetrics{}
	options = append(options, pathcore.WithMetrics(metrics))
	results, err := pathcore.SolveAll[gridgraph.Cell](context.Background(), g, g.Heuristic(), requests, cfg.Processor.Workers, options...)
	if err != nil {
		return err
	}
	outs := make([]output, len(results))
	for i, result := range results {
		outs[i] = describe(result, g, corridor, requests[i].Start, requests[i].Goal)
	}
	log.WithFields(log.Fields{
		"queries":  metrics.Queries.Load(),
		"complete": metrics.Complete.Load(),
		"partial":  metrics.Partial.Load(),
		"failed":   metrics.Failed.Load(),
		"expanded": metrics.ExpandedNodes.Load(),
	}).Info("batch finished")
	return printJSON(outs)
}

func describe(result pathcore.Result[gridgraph.Cell], g *gridgraph.Grid, corridor *funnel.Corridor[gridgraph.Cell], start, goal gridgraph.Cell) output {
	out := output{
		Status:   result.Status.String(),
		Cost:     result.TotalCost,
		Expanded: result.ExpandedNodes,
		Duration: result.Duration.String(),
	}
	if result.ID != uuid.Nil {
		out.ID = result.ID.String()
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	if len(result.Path) == 0 {
		return out
	}
	for _, cell := range result.Path {
		out.Cells = append(out.Cells, [2]int{cell.X, cell.Y})
	}
	end := g.Position(goal)
	if result.Status == pathcore.StatusPartial {
		end = g.Position(result.Path[len(result.Path)-1])
	}
	out.Points, out.Pulled = corridor.Path(result.Path, g.Position(start), end)
	return out
}

func loadMap(c *cli.Context) (*gridgraph.Map, error) {
	var options []gridgraph.Option
	if c.Bool("diagonal") {
		options = append(options, gridgraph.WithDiagonal(true))
	}
	if path := c.String("map"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return gridgraph.Parse(f, options...)
	}

	size, err := parseCell(c.String("random"))
	if err != nil {
		return nil, fmt.Errorf("--random: %w", err)
	}
	var keep []gridgraph.Cell
	for _, name := range []string{"from", "to"} {
		if v := c.String(name); v != "" {
			cell, err := parseCell(v)
			if err != nil {
				return nil, fmt.Errorf("--%s: %w", name, err)
			}
			keep = append(keep, cell)
		}
	}
	g := gridgraph.Random(size.X, size.Y, 8, 200, 0.25, c.Int64("seed"), keep, options...)
	return &gridgraph.Map{Grid: g}, nil
}

func parseCell(s string) (gridgraph.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return gridgraph.Cell{}, fmt.Errorf("expected X,Y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return gridgraph.Cell{}, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return gridgraph.Cell{}, err
	}
	return gridgraph.Cell{X: x, Y: y}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
