package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/funnel"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, pathcore.DefaultHeapCapacity, cfg.Search.HeapCapacity)
	assert.Equal(t, pathcore.DefaultCheckInterval, cfg.Search.CheckInterval)
	assert.Equal(t, uint64(pathcore.DefaultMaxExpandedNodes), cfg.Search.MaxExpanded)
	assert.Equal(t, pathcore.DefaultSliceBudget, cfg.Search.SliceBudget)
	assert.False(t, cfg.Search.PartialPaths)
	assert.Equal(t, funnel.DefaultMaxPoints, cfg.Funnel.MaxPoints)
	assert.Equal(t, pathcore.DefaultFrameBudget, cfg.Processor.FrameBudget)
	assert.Equal(t, 60.0, cfg.Processor.FPS)
	assert.Equal(t, "info", cfg.Log.Level)

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[search]
check_interval = 64
max_expanded = 5000
partial_paths = true
slice_budget = "5ms"

[funnel]
max_points = 300

[processor]
fps = 30.0
workers = 2

[log]
level = "warn"
format = "json"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Search.CheckInterval)
	assert.Equal(t, uint64(5000), cfg.Search.MaxExpanded)
	assert.True(t, cfg.Search.PartialPaths)
	assert.Equal(t, 5*time.Millisecond, cfg.Search.SliceBudget)
	assert.Equal(t, pathcore.DefaultHeapCapacity, cfg.Search.HeapCapacity)
	assert.Equal(t, 300, cfg.Funnel.MaxPoints)
	assert.Equal(t, 30.0, cfg.Processor.FPS)
	assert.Equal(t, 2, cfg.Processor.Workers)

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	assert.Len(t, cfg.Options(logger), 7)
	assert.Len(t, cfg.Options(nil), 6)
	assert.Len(t, cfg.FunnelOptions(logger), 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Debug = true
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)

	cfg.Log.Format = "xml"
	_, err = cfg.NewLogger()
	assert.Error(t, err)

	cfg = Default()
	cfg.Log.Level = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
