package pathlib

import (
	"fmt"
	"sync"
	"time"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// Library is the shared reasoning-path store. One lock guards the cache;
// persistence happens inside the lock (write-through) so the on-disk state
// never drifts from the cache. Reads take the lock briefly and return clones.
type Library struct {
	mu      sync.Mutex
	cache   map[string]*types.ReasoningPath
	backend Backend

	hits   int64
	misses int64
}

// Stats is a snapshot of library counters.
type Stats struct {
	TotalPaths int    `json:"total_paths"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	Backend    string `json:"backend"`
}

// New creates a Library over the given backend and loads persisted paths.
func New(backend Backend) (*Library, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	cache, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("pathlib: load failed: %w", err)
	}
	logging.PathLib("path library opened (backend=%s, paths=%d)", backend.Name(), len(cache))
	return &Library{cache: cache, backend: backend}, nil
}

// Add inserts a new path. Re-adding an existing path_id is a no-op that
// returns ErrDuplicateID.
func (l *Library) Add(p *types.ReasoningPath) error {
	if p == nil || p.PathID == "" {
		return fmt.Errorf("pathlib: path with empty id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.cache[p.PathID]; exists {
		logging.PathLibDebug("add %s: duplicate, ignoring", p.PathID)
		return ErrDuplicateID
	}

	stored := p.Clone()
	normalize(stored)
	l.cache[stored.PathID] = stored

	if err := l.backend.Save(stored); err != nil {
		// Cache entry stays; persistence retries on the next write.
		logging.Get(logging.CategoryPathLib).Error("add %s: persist failed: %v", stored.PathID, err)
		return fmt.Errorf("pathlib: persist failed: %w", err)
	}
	logging.PathLibDebug("added path %s (type=%s, status=%s)", stored.PathID, stored.PathType, stored.Metadata.Status)
	return nil
}

// normalize fills defaults so every cached path satisfies the invariants.
func normalize(p *types.ReasoningPath) {
	now := time.Now()
	if p.Metadata.CreatedAt.IsZero() {
		p.Metadata.CreatedAt = now
	}
	if p.Metadata.UpdatedAt.IsZero() {
		p.Metadata.UpdatedAt = now
	}
	if p.Metadata.Version == "" {
		p.Metadata.Version = "1.0"
	}
	if p.Metadata.Status == "" {
		p.Metadata.Status = types.PathActive
	}
	if p.Metadata.Category == "" {
		p.Metadata.Category = types.CategoryAnalytical
	}
	if p.EffectivenessScore < 0.1 {
		p.EffectivenessScore = 0.5
	}
	if p.EffectivenessScore > 1.0 {
		p.EffectivenessScore = 1.0
	}
}

// Get returns a copy of the path or ErrNotFound. Hit/miss counters are
// updated on every call.
func (l *Library) Get(pathID string) (*types.ReasoningPath, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.cache[pathID]
	if !ok {
		l.misses++
		return nil, ErrNotFound
	}
	l.hits++
	return p.Clone(), nil
}

// QueryOptions filter Query results. Zero values mean "any".
type QueryOptions struct {
	Status         types.PathStatus
	Category       types.PathCategory
	IncludeRetired bool
}

// Query returns a snapshot mapping of paths matching the filter. Retired
// paths are excluded unless IncludeRetired is set.
func (l *Library) Query(opts QueryOptions) map[string]*types.ReasoningPath {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]*types.ReasoningPath)
	for id, p := range l.cache {
		if p.Metadata.Status == types.PathRetired && !opts.IncludeRetired {
			continue
		}
		if opts.Status != "" && p.Metadata.Status != opts.Status {
			continue
		}
		if opts.Category != "" && p.Metadata.Category != opts.Category {
			continue
		}
		out[id] = p.Clone()
	}
	return out
}

// ByStrategy returns all paths bound to the given strategy (linear scan).
func (l *Library) ByStrategy(strategyID string) []*types.ReasoningPath {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*types.ReasoningPath
	for _, p := range l.cache {
		if p.StrategyID == strategyID {
			out = append(out, p.Clone())
		}
	}
	return out
}

// UpdatePerformance records one use of a path. executionTime is in seconds;
// rating is optional and only affects the rolling average when provided.
// Effectiveness moves multiplicatively: x1.05 capped at 1.0 on success,
// x0.95 floored at 0.1 on failure.
func (l *Library) UpdatePerformance(pathID string, success bool, executionTime float64, rating *float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.cache[pathID]
	if !ok {
		return ErrNotFound
	}

	m := &p.Metadata
	prevUses := float64(m.UsageCount)
	m.UsageCount++

	s := 0.0
	if success {
		s = 1.0
	}
	m.SuccessRate = (m.SuccessRate*prevUses + s) / float64(m.UsageCount)
	m.TotalExecutionTime += executionTime

	if rating != nil {
		prevRatings := float64(m.RatingCount)
		m.RatingCount++
		m.AverageRating = (m.AverageRating*prevRatings + *rating) / float64(m.RatingCount)
	}

	if success {
		p.EffectivenessScore *= 1.05
		if p.EffectivenessScore > 1.0 {
			p.EffectivenessScore = 1.0
		}
	} else {
		p.EffectivenessScore *= 0.95
		if p.EffectivenessScore < 0.1 {
			p.EffectivenessScore = 0.1
		}
	}
	m.UpdatedAt = time.Now()

	if err := l.backend.Save(p); err != nil {
		logging.Get(logging.CategoryPathLib).Error("update %s: persist failed: %v", pathID, err)
		return fmt.Errorf("pathlib: persist failed: %w", err)
	}
	logging.PathLibDebug("updated path %s: uses=%d sr=%.3f eff=%.3f",
		pathID, m.UsageCount, m.SuccessRate, p.EffectivenessScore)
	return nil
}

// Backup writes a full JSON snapshot of the library to the given path.
func (l *Library) Backup(path string) error {
	l.mu.Lock()
	paths := make([]*types.ReasoningPath, 0, len(l.cache))
	for _, p := range l.cache {
		paths = append(paths, p.Clone())
	}
	l.mu.Unlock()

	backup, err := NewJSONBackend(path)
	if err != nil {
		return err
	}
	if err := backup.SaveAll(paths); err != nil {
		return err
	}
	logging.PathLib("backed up %d paths to %s", len(paths), path)
	return nil
}

// MigrateFromTemplates bulk-adds template paths. Migration is idempotent on
// path_id: existing entries are left untouched. Returns the number of new
// paths added.
func (l *Library) MigrateFromTemplates(templates map[string]*types.ReasoningPath) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var added []*types.ReasoningPath
	for id, tmpl := range templates {
		if id == "" || tmpl == nil {
			continue
		}
		if _, exists := l.cache[id]; exists {
			continue
		}
		p := tmpl.Clone()
		p.PathID = id
		normalize(p)
		l.cache[id] = p
		added = append(added, p)
	}

	if len(added) > 0 {
		if err := l.backend.SaveAll(added); err != nil {
			return len(added), fmt.Errorf("pathlib: migration persist failed: %w", err)
		}
	}
	logging.PathLib("migrated %d/%d template paths", len(added), len(templates))
	return len(added), nil
}

// Stats returns a snapshot of the library counters.
func (l *Library) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		TotalPaths: len(l.cache),
		Hits:       l.hits,
		Misses:     l.misses,
		Backend:    l.backend.Name(),
	}
}

// Close releases the backend.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend.Close()
}
