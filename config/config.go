// Package config loads pathcore settings with viper.
package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/funnel"
)

// Config is the full set of tunables.
type Config struct {
	Search    Search
	Funnel    Funnel
	Processor Processor
	Log       Log
}

// Search mirrors pathcore.Options.
type Search struct {
	HeapCapacity  int
	GrowthFactor  float64
	CheckInterval int
	MaxExpanded   uint64
	PartialPaths  bool
	SliceBudget   time.Duration
}

type Funnel struct {
	MaxPoints int
}

type Processor struct {
	FrameBudget time.Duration
	FPS         float64
	Workers     int
}

type Log struct {
	Level  string
	Format string // text or json
	Debug  bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.heap_capacity", pathcore.DefaultHeapCapacity)
	v.SetDefault("search.growth_factor", pathcore.DefaultGrowthFactor)
	v.SetDefault("search.check_interval", pathcore.DefaultCheckInterval)
	v.SetDefault("search.max_expanded", pathcore.DefaultMaxExpandedNodes)
	v.SetDefault("search.partial_paths", false)
	v.SetDefault("search.slice_budget", pathcore.DefaultSliceBudget.String())
	v.SetDefault("funnel.max_points", funnel.DefaultMaxPoints)
	v.SetDefault("processor.frame_budget", pathcore.DefaultFrameBudget.String())
	v.SetDefault("processor.fps", 60.0)
	v.SetDefault("processor.workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.debug", false)
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// Load reads the file at path on top of the defaults. The format follows the
// file extension and falls back to TOML.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		return fromViper(v), nil
	}
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Search: Search{
			HeapCapacity:  v.GetInt("search.heap_capacity"),
			GrowthFactor:  v.GetFloat64("search.growth_factor"),
			CheckInterval: v.GetInt("search.check_interval"),
			MaxExpanded:   uint64(v.GetInt("search.max_expanded")),
			PartialPaths:  v.GetBool("search.partial_paths"),
			SliceBudget:   v.GetDuration("search.slice_budget"),
		},
		Funnel: Funnel{
			MaxPoints: v.GetInt("funnel.max_points"),
		},
		Processor: Processor{
			FrameBudget: v.GetDuration("processor.frame_budget"),
			FPS:         v.GetFloat64("processor.fps"),
			Workers:     v.GetInt("processor.workers"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Debug:  v.GetBool("log.debug"),
		},
	}
}

// Options converts the search section to pathcore options.
func (c Config) Options(logger log.FieldLogger) []pathcore.Option {
	options := []pathcore.Option{
		pathcore.WithHeapCapacity(c.Search.HeapCapacity),
		pathcore.WithGrowthFactor(c.Search.GrowthFactor),
		pathcore.WithCheckInterval(c.Search.CheckInterval),
		pathcore.WithMaxExpandedNodes(c.Search.MaxExpanded),
		pathcore.WithPartialPaths(c.Search.PartialPaths),
		pathcore.WithSliceBudget(c.Search.SliceBudget),
	}
	if logger != nil {
		options = append(options, pathcore.WithLogger(logger))
	}
	return options
}

// FunnelOptions converts the funnel section to funnel options.
func (c Config) FunnelOptions(logger log.FieldLogger) []funnel.Option {
	options := []funnel.Option{funnel.WithMaxPoints(c.Funnel.MaxPoints)}
	if logger != nil {
		options = append(options, funnel.WithLogger(logger))
	}
	return options
}

// NewLogger builds a logrus logger from the log section. log.debug forces
// the debug level.
func (c Config) NewLogger() (*log.Logger, error) {
	logger := log.New()
	switch c.Log.Format {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{DisableColors: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Debug {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return logger, nil
}
