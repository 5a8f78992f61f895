// Package pathlib implements the dynamic reasoning-path library: a
// persistent, growable mapping path_id -> ReasoningPath with performance
// tracking, recommendation scoring and seed-based learning. Three storage
// backends are supported: in-memory (tests), JSON (single-document atomic
// rewrite) and SQLite.
package pathlib

import (
	"errors"

	"mindloop/internal/types"
)

// Precise error kinds for library mutations.
var (
	// ErrDuplicateID is returned when adding a path whose ID already exists.
	ErrDuplicateID = errors.New("pathlib: duplicate path id")

	// ErrNotFound is returned when the requested path is unknown.
	ErrNotFound = errors.New("pathlib: path not found")
)

// Backend persists reasoning paths. Implementations are not required to be
// safe for concurrent use; the Library serializes all calls under its lock.
type Backend interface {
	// Name identifies the backend ("memory", "json", "sqlite").
	Name() string

	// Load reads all persisted paths. Entries with malformed metadata are
	// skipped with a warning; a missing store yields an empty map.
	Load() (map[string]*types.ReasoningPath, error)

	// Save persists a single path (insert or update).
	Save(p *types.ReasoningPath) error

	// SaveAll persists a batch of paths.
	SaveAll(paths []*types.ReasoningPath) error

	// Close releases backend resources.
	Close() error
}

// MemoryBackend keeps paths only in the library cache. Used by tests.
type MemoryBackend struct{}

// NewMemoryBackend creates a no-op persistence backend.
func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Load() (map[string]*types.ReasoningPath, error) {
	return map[string]*types.ReasoningPath{}, nil
}

func (m *MemoryBackend) Save(p *types.ReasoningPath) error { return nil }

func (m *MemoryBackend) SaveAll(paths []*types.ReasoningPath) error { return nil }

func (m *MemoryBackend) Close() error { return nil }
