// Package config loads and validates mindloop configuration.
// Configuration is YAML with sensible defaults; a missing file yields the
// defaults. Duration fields are stored as duration strings ("10s", "2h") and
// exposed through typed getters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"mindloop/internal/types"
)

// Config holds all mindloop configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Cognitive scheduler
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Retrospection engine
	Retrospection RetrospectionConfig `yaml:"retrospection"`

	// Knowledge explorer
	Explorer ExplorerConfig `yaml:"explorer"`

	// Reasoning-path library
	PathLibrary PathLibraryConfig `yaml:"path_library"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SchedulerConfig configures idle detection and cognitive task dispatch.
type SchedulerConfig struct {
	IdleDetection  IdleDetectionConfig  `yaml:"idle_detection"`
	CognitiveTasks CognitiveTasksConfig `yaml:"cognitive_tasks"`
}

// IdleDetectionConfig controls when the scheduler considers the agent idle.
type IdleDetectionConfig struct {
	MinIdleDuration      string `yaml:"min_idle_duration"`      // default 10s
	CheckInterval        string `yaml:"check_interval"`         // default 2s
	TaskCompletionBuffer string `yaml:"task_completion_buffer"` // default 5s
}

// CognitiveTasksConfig controls background job cadence and worker limits.
type CognitiveTasksConfig struct {
	RetrospectionInterval string `yaml:"retrospection_interval"` // default 60s
	IdeationInterval      string `yaml:"ideation_interval"`      // default 120s
	ExplorationInterval   string `yaml:"exploration_interval"`   // default 180s
	MaxConcurrentTasks    int    `yaml:"max_concurrent_tasks"`   // worker count, default 2
	TaskTimeout           string `yaml:"task_timeout"`           // default 180s
}

// DualTrackConfig bounds the user-directed vs autonomous exploration tracks.
type DualTrackConfig struct {
	UserDirectedPriority    int `yaml:"user_directed_priority"`    // default 10
	AutonomousPriority      int `yaml:"autonomous_priority"`       // default 3
	MaxConcurrentUserTasks  int `yaml:"max_concurrent_user_tasks"` // default 3
	MaxConcurrentAutonomous int `yaml:"max_concurrent_autonomous"` // default 1
}

// ExplorerConfig configures the knowledge exploration pipeline.
type ExplorerConfig struct {
	DefaultStrategy         string          `yaml:"default_strategy"`          // default domain_expansion
	MaxExplorationDepth     int             `yaml:"max_exploration_depth"`     // default 3
	MaxParallelExplorations int             `yaml:"max_parallel_explorations"` // default 3
	MaxSeedsPerExploration  int             `yaml:"max_seeds_per_exploration"` // default 5
	EnableWebSearch         bool            `yaml:"enable_web_search"`
	MinConfidenceThreshold  float64         `yaml:"min_confidence_threshold"` // default 0.4
	MinRelevanceThreshold   float64         `yaml:"min_relevance_threshold"`  // default 0.3
	KnowledgeThreshold      float64         `yaml:"knowledge_threshold"`      // advisory
	ExplorationTimeout      string          `yaml:"exploration_timeout"`      // default 120s
	UserDirectedTimeout     string          `yaml:"user_directed_timeout"`    // default 60s
	KnowledgeCacheCap       int             `yaml:"knowledge_cache_cap"`      // default 500
	SeedCacheCap            int             `yaml:"seed_cache_cap"`           // default 300
	HistoryCap              int             `yaml:"history_cap"`              // default 100
	DualTrack               DualTrackConfig `yaml:"dual_track"`
}

// RetrospectionConfig configures the Select/Ideate/Assimilate pipeline.
type RetrospectionConfig struct {
	TaskSelection TaskSelectionConfig `yaml:"task_selection"`
	Ideation      IdeationConfig      `yaml:"ideation"`
	Assimilation  AssimilationConfig  `yaml:"assimilation"`
}

// TaskSelectionConfig controls which historical turn gets reviewed.
type TaskSelectionConfig struct {
	DefaultStrategy      string  `yaml:"default_strategy"`       // default failure_focused
	MaxTaskAgeHours      float64 `yaml:"max_task_age_hours"`     // default 24
	FailurePriorityBoost float64 `yaml:"failure_priority_boost"` // advisory
	MaxTasksPerSession   int     `yaml:"max_tasks_per_session"`  // default 3
}

// IdeationConfig controls the two parallel activators of the Ideate stage.
type IdeationConfig struct {
	EnableLLMDimensions       bool    `yaml:"enable_llm_dimensions"` // default true
	EnableAhaMoment           bool    `yaml:"enable_aha_moment"`     // default true
	MaxNewDimensions          int     `yaml:"max_new_dimensions"`    // default 3
	MaxCreativePaths          int     `yaml:"max_creative_paths"`    // default 4
	CreativePromptTemperature float64 `yaml:"creative_prompt_temperature"`
}

// AssimilationConfig controls MAB injection of new strategies.
type AssimilationConfig struct {
	EnableMABInjection       bool    `yaml:"enable_mab_injection"`       // default true
	InitialExplorationReward float64 `yaml:"initial_exploration_reward"` // default 0.1
}

// PathLibraryConfig configures reasoning-path persistence.
type PathLibraryConfig struct {
	StorageBackend string `yaml:"storage_backend"` // memory, json, sqlite
	StoragePath    string `yaml:"storage_path"`
	CacheSize      int    `yaml:"cache_size"` // advisory
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// Storage backend names for PathLibraryConfig.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mindloop",
		Version: "0.3.0",

		Scheduler: SchedulerConfig{
			IdleDetection: IdleDetectionConfig{
				MinIdleDuration:      "10s",
				CheckInterval:        "2s",
				TaskCompletionBuffer: "5s",
			},
			CognitiveTasks: CognitiveTasksConfig{
				RetrospectionInterval: "60s",
				IdeationInterval:      "120s",
				ExplorationInterval:   "180s",
				MaxConcurrentTasks:    2,
				TaskTimeout:           "180s",
			},
		},

		Retrospection: RetrospectionConfig{
			TaskSelection: TaskSelectionConfig{
				DefaultStrategy:      string(types.SelectFailureFocused),
				MaxTaskAgeHours:      24,
				FailurePriorityBoost: 1.5,
				MaxTasksPerSession:   3,
			},
			Ideation: IdeationConfig{
				EnableLLMDimensions:       true,
				EnableAhaMoment:           true,
				MaxNewDimensions:          3,
				MaxCreativePaths:          4,
				CreativePromptTemperature: 0.9,
			},
			Assimilation: AssimilationConfig{
				EnableMABInjection:       true,
				InitialExplorationReward: 0.1,
			},
		},

		Explorer: ExplorerConfig{
			DefaultStrategy:         string(types.StrategyDomainExpansion),
			MaxExplorationDepth:     3,
			MaxParallelExplorations: 3,
			MaxSeedsPerExploration:  5,
			EnableWebSearch:         true,
			MinConfidenceThreshold:  0.4,
			MinRelevanceThreshold:   0.3,
			KnowledgeThreshold:      0.5,
			ExplorationTimeout:      "120s",
			UserDirectedTimeout:     "60s",
			KnowledgeCacheCap:       500,
			SeedCacheCap:            300,
			HistoryCap:              100,
			DualTrack: DualTrackConfig{
				UserDirectedPriority:    10,
				AutonomousPriority:      3,
				MaxConcurrentUserTasks:  3,
				MaxConcurrentAutonomous: 1,
			},
		},

		PathLibrary: PathLibraryConfig{
			StorageBackend: BackendJSON,
			StoragePath:    "data/reasoning_paths.json",
			CacheSize:      1000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "mindloop.log",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MINDLOOP_PATHS_DB"); path != "" {
		c.PathLibrary.StoragePath = path
	}
	if backend := os.Getenv("MINDLOOP_PATHS_BACKEND"); backend != "" {
		c.PathLibrary.StorageBackend = backend
	}
	if level := os.Getenv("MINDLOOP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("MINDLOOP_DISABLE_WEB_SEARCH"); v == "1" || v == "true" {
		c.Explorer.EnableWebSearch = false
	}
}

// duration parses a duration string with a fallback.
func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetMinIdleDuration returns the idle threshold as a duration.
func (c *Config) GetMinIdleDuration() time.Duration {
	return duration(c.Scheduler.IdleDetection.MinIdleDuration, 10*time.Second)
}

// GetCheckInterval returns the supervisor tick interval as a duration.
func (c *Config) GetCheckInterval() time.Duration {
	return duration(c.Scheduler.IdleDetection.CheckInterval, 2*time.Second)
}

// GetTaskCompletionBuffer returns the post-completion settle window.
func (c *Config) GetTaskCompletionBuffer() time.Duration {
	return duration(c.Scheduler.IdleDetection.TaskCompletionBuffer, 5*time.Second)
}

// GetRetrospectionInterval returns the retrospection cadence as a duration.
func (c *Config) GetRetrospectionInterval() time.Duration {
	return duration(c.Scheduler.CognitiveTasks.RetrospectionInterval, 60*time.Second)
}

// GetIdeationInterval returns the ideation cadence as a duration.
func (c *Config) GetIdeationInterval() time.Duration {
	return duration(c.Scheduler.CognitiveTasks.IdeationInterval, 120*time.Second)
}

// GetExplorationInterval returns the autonomous exploration cadence.
func (c *Config) GetExplorationInterval() time.Duration {
	return duration(c.Scheduler.CognitiveTasks.ExplorationInterval, 180*time.Second)
}

// GetTaskTimeout returns the per-job timeout as a duration.
func (c *Config) GetTaskTimeout() time.Duration {
	return duration(c.Scheduler.CognitiveTasks.TaskTimeout, 180*time.Second)
}

// GetExplorationTimeout returns the autonomous exploration timeout.
func (c *Config) GetExplorationTimeout() time.Duration {
	return duration(c.Explorer.ExplorationTimeout, 120*time.Second)
}

// GetUserDirectedTimeout returns the user-directed exploration timeout.
func (c *Config) GetUserDirectedTimeout() time.Duration {
	return duration(c.Explorer.UserDirectedTimeout, 60*time.Second)
}

// GetMaxTaskAge returns the retrospection candidate age ceiling.
func (c *Config) GetMaxTaskAge() time.Duration {
	hours := c.Retrospection.TaskSelection.MaxTaskAgeHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours * float64(time.Hour))
}

// Validate validates the configuration. Unknown strategy names and
// out-of-range numeric options are rejected at entry.
func (c *Config) Validate() error {
	if n := c.Scheduler.CognitiveTasks.MaxConcurrentTasks; n < 1 {
		return fmt.Errorf("max_concurrent_tasks must be >= 1, got %d", n)
	}
	if s := types.RetrospectionStrategy(c.Retrospection.TaskSelection.DefaultStrategy); !s.Valid() {
		return fmt.Errorf("unknown retrospection strategy: %q", s)
	}
	if s := types.ExplorationStrategy(c.Explorer.DefaultStrategy); !s.Valid() {
		return fmt.Errorf("unknown exploration strategy: %q", s)
	}
	if t := c.Explorer.MinConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("min_confidence_threshold must be in [0,1], got %v", t)
	}
	if t := c.Explorer.MinRelevanceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("min_relevance_threshold must be in [0,1], got %v", t)
	}
	if n := c.Explorer.MaxSeedsPerExploration; n < 1 {
		return fmt.Errorf("max_seeds_per_exploration must be >= 1, got %d", n)
	}
	if p := c.Explorer.DualTrack.UserDirectedPriority; p < 1 || p > 10 {
		return fmt.Errorf("user_directed_priority must be in [1,10], got %d", p)
	}
	if p := c.Explorer.DualTrack.AutonomousPriority; p < 1 || p > 10 {
		return fmt.Errorf("autonomous_priority must be in [1,10], got %d", p)
	}
	if r := c.Retrospection.Assimilation.InitialExplorationReward; r < 0 || r > 1 {
		return fmt.Errorf("initial_exploration_reward must be in [0,1], got %v", r)
	}
	switch c.PathLibrary.StorageBackend {
	case BackendMemory, BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend: %q (valid: memory, json, sqlite)", c.PathLibrary.StorageBackend)
	}
	return nil
}
