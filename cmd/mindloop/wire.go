package main

import (
	"fmt"
	"os"

	"mindloop/internal/config"
	"mindloop/internal/explorer"
	"mindloop/internal/llm"
	"mindloop/internal/mab"
	"mindloop/internal/pathlib"
	"mindloop/internal/retrospect"
	"mindloop/internal/scheduler"
	"mindloop/internal/search"
	"mindloop/internal/state"
)

// core bundles the wired subsystems for a command invocation.
type core struct {
	state     *state.MemoryStore
	mab       *mab.MemoryStore
	library   *pathlib.Library
	explorer  *explorer.Explorer
	engine    *retrospect.Engine
	scheduler *scheduler.Scheduler
}

// buildCore wires the full stack from configuration. The state and MAB
// stores are in-memory stand-ins for the host agent's own.
func buildCore(cfg *config.Config) (*core, error) {
	backend, err := buildBackend(cfg.PathLibrary)
	if err != nil {
		return nil, err
	}
	library, err := pathlib.New(backend)
	if err != nil {
		return nil, fmt.Errorf("open path library: %w", err)
	}

	var dims llm.DimensionCreator
	var gen llm.PathGenerator
	var analyzer llm.SemanticAnalyzer
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		client, err := llm.NewGenaiClient(key, os.Getenv("MINDLOOP_MODEL"))
		if err != nil {
			return nil, err
		}
		dims, gen = client, client
		analyzer = llm.NewHeuristicClient()
	} else {
		heuristic := llm.NewHeuristicClient()
		dims, gen, analyzer = heuristic, heuristic, heuristic
	}

	var searchClient search.Client
	if cfg.Explorer.EnableWebSearch {
		searchClient = search.NewHTTPClient(search.DefaultHTTPConfig())
	}

	stateStore := state.NewMemoryStore()
	mabStore := mab.NewMemoryStore()
	exp := explorer.New(cfg.Explorer, searchClient, analyzer)
	engine := retrospect.New(cfg.Retrospection, dims, gen, mabStore, library)
	sched := scheduler.New(cfg, stateStore, engine, exp)

	return &core{
		state:     stateStore,
		mab:       mabStore,
		library:   library,
		explorer:  exp,
		engine:    engine,
		scheduler: sched,
	}, nil
}

func buildBackend(cfg config.PathLibraryConfig) (pathlib.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return pathlib.NewMemoryBackend(), nil
	case config.BackendSQLite:
		return pathlib.NewSQLiteBackend(cfg.StoragePath)
	case config.BackendJSON, "":
		return pathlib.NewJSONBackend(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (c *core) close() {
	if c.library != nil {
		_ = c.library.Close()
	}
}
