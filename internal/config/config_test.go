package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindloop/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10*time.Second, cfg.GetMinIdleDuration())
	assert.Equal(t, 2*time.Second, cfg.GetCheckInterval())
	assert.Equal(t, 120*time.Second, cfg.GetIdeationInterval())
	assert.Equal(t, 180*time.Second, cfg.GetExplorationInterval())
	assert.Equal(t, 180*time.Second, cfg.GetTaskTimeout())
	assert.Equal(t, 24*time.Hour, cfg.GetMaxTaskAge())
	assert.Equal(t, 2, cfg.Scheduler.CognitiveTasks.MaxConcurrentTasks)
	assert.Equal(t, 10, cfg.Explorer.DualTrack.UserDirectedPriority)
	assert.Equal(t, 3, cfg.Explorer.DualTrack.AutonomousPriority)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Explorer.DefaultStrategy, cfg.Explorer.DefaultStrategy)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindloop.yaml")

	cfg := DefaultConfig()
	cfg.Scheduler.IdleDetection.MinIdleDuration = "25s"
	cfg.Explorer.DefaultStrategy = string(types.StrategyGapAnalysis)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, loaded.GetMinIdleDuration())
	assert.Equal(t, string(types.StrategyGapAnalysis), loaded.Explorer.DefaultStrategy)
}

func TestValidateRejectsUnknownStrategies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Explorer.DefaultStrategy = "wild_guessing"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Retrospection.TaskSelection.DefaultStrategy = "mood_based"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Explorer.MinConfidenceThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scheduler.CognitiveTasks.MaxConcurrentTasks = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Explorer.DualTrack.UserDirectedPriority = 11
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PathLibrary.StorageBackend = "clay_tablets"
	assert.Error(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MINDLOOP_PATHS_DB", "/tmp/override.db")
	t.Setenv("MINDLOOP_PATHS_BACKEND", BackendSQLite)
	t.Setenv("MINDLOOP_DISABLE_WEB_SEARCH", "1")

	path := filepath.Join(t.TempDir(), "mindloop.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.PathLibrary.StoragePath)
	assert.Equal(t, BackendSQLite, cfg.PathLibrary.StorageBackend)
	assert.False(t, cfg.Explorer.EnableWebSearch)
}

func TestDurationFallbackOnGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.IdleDetection.MinIdleDuration = "not a duration"
	assert.Equal(t, 10*time.Second, cfg.GetMinIdleDuration())
}

func TestPartialYAMLKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := []byte("scheduler:\n  idle_detection:\n    min_idle_duration: 42s\n")
	require.NoError(t, os.WriteFile(path, partial, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, cfg.GetMinIdleDuration())
	assert.Equal(t, 2*time.Second, cfg.GetCheckInterval())
	assert.Equal(t, 5, cfg.Explorer.MaxSeedsPerExploration)
}
