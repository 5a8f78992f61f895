package explorer

import (
	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// CACHES
// =============================================================================
// Knowledge and seed caches are append-only within a run; when a cache
// exceeds its cap the oldest half is evicted in one step. Trimming runs
// inline after each exploration, never on a background goroutine.

func (e *Explorer) cacheResults(knowledge []types.KnowledgeItem, seeds []types.ThinkingSeed) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.knowledgeCache = append(e.knowledgeCache, knowledge...)
	e.seedCache = append(e.seedCache, seeds...)

	kCap := e.cfg.KnowledgeCacheCap
	if kCap <= 0 {
		kCap = 500
	}
	sCap := e.cfg.SeedCacheCap
	if sCap <= 0 {
		sCap = 300
	}

	if evicted := trimOldestHalf(&e.knowledgeCache, kCap); evicted > 0 {
		logging.ExploreDebug("cache: evicted %d knowledge items", evicted)
	}
	if evicted := trimOldestHalf(&e.seedCache, sCap); evicted > 0 {
		logging.ExploreDebug("cache: evicted %d seeds", evicted)
	}
}

// trimOldestHalf drops the oldest half of the slice when it exceeds cap,
// returning the number of evicted entries. Entries are stored in insertion
// order, so the front is the oldest.
func trimOldestHalf[T any](items *[]T, cap int) int {
	if len(*items) <= cap {
		return 0
	}
	keepFrom := len(*items) / 2
	evicted := keepFrom
	kept := make([]T, len(*items)-keepFrom)
	copy(kept, (*items)[keepFrom:])
	*items = kept
	return evicted
}

// CachedKnowledge returns a snapshot of the knowledge cache.
func (e *Explorer) CachedKnowledge() []types.KnowledgeItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.KnowledgeItem, len(e.knowledgeCache))
	copy(out, e.knowledgeCache)
	return out
}

// CachedSeeds returns a snapshot of the seed cache.
func (e *Explorer) CachedSeeds() []types.ThinkingSeed {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.ThinkingSeed, len(e.seedCache))
	copy(out, e.seedCache)
	return out
}

// Stats summarizes explorer state for status reporting.
type Stats struct {
	KnowledgeCached int            `json:"knowledge_cached"`
	SeedsCached     int            `json:"seeds_cached"`
	Explorations    int            `json:"explorations"`
	StrategyRuns    map[string]int `json:"strategy_runs"`
}

// GetStats returns current cache and scoreboard counters.
func (e *Explorer) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	runs := make(map[string]int, len(e.scoreboard))
	total := 0
	for s, score := range e.scoreboard {
		runs[string(s)] = score.Runs
		total += score.Runs
	}
	return Stats{
		KnowledgeCached: len(e.knowledgeCache),
		SeedsCached:     len(e.seedCache),
		Explorations:    total,
		StrategyRuns:    runs,
	}
}
