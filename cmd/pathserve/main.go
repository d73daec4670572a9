package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdrpinto/pathcore/config"
	"github.com/pdrpinto/pathcore/gridgraph"
	"github.com/pdrpinto/pathcore/metrics"
)

func main() {
	app := cli.NewApp()

	app.Name = "pathserve"
	app.Version = "0.1.0"
	app.Usage = "serve time-sliced grid path queries over HTTP"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "addr",
			Value: ":8080",
			Usage: "listen address",
		},
		cli.StringFlag{
			Name:  "map, m",
			Usage: "ASCII map `FILE`; a random map is generated when empty",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 40,
			Usage: "width of a generated map",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 24,
			Usage: "height of a generated map",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "seed of a generated map",
		},
		cli.BoolFlag{
			Name:  "diagonal",
			Usage: "allow diagonal moves",
		},
	}

	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	grid, err := loadGrid(c)
	if err != nil {
		return err
	}
	logger.Infof("grid %dx%d with %d walls", grid.Width, grid.Height, grid.Walls())

	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(registry, "pathcore")
	s := newServer(grid, cfg, logger, collector)

	router := mux.NewRouter()
	s.routes(router)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	srv := &http.Server{Addr: c.String("addr"), Handler: router}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		limiter := rate.NewLimiter(rate.Limit(cfg.Processor.FPS), 1)
		return s.run(ctx, limiter, cfg.Processor.FrameBudget)
	})
	group.Go(func() error {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func loadGrid(c *cli.Context) (*gridgraph.Grid, error) {
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
		m, err := gridgraph.Parse(f, options...)
		if err != nil {
			return nil, err
		}
		return m.Grid, nil
	}
	return gridgraph.Random(c.Int("width"), c.Int("height"), 8, 200, 0.25, c.Int64("seed"), nil, options...), nil
}
