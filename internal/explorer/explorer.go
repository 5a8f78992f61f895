// Package explorer implements the knowledge exploration pipeline:
// Collect -> Evaluate -> Seed -> Trend -> Cross-domain. An exploration run
// takes a set of targets, gathers raw information through pluggable sources
// (web search by default), evaluates and filters it, derives thinking seeds,
// detects trends and emits cross-domain insights.
package explorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindloop/internal/config"
	"mindloop/internal/llm"
	"mindloop/internal/logging"
	"mindloop/internal/search"
	"mindloop/internal/types"
)

// rawItem is one unevaluated piece of collected information.
type rawItem struct {
	Content     string
	Title       string
	URL         string
	SourceType  string
	Query       string
	TargetID    string
	CollectedAt time.Time
}

// Source is a pluggable information source. Web search is the default;
// API and database sources implement the same contract.
type Source interface {
	Type() string
	Collect(ctx context.Context, query string, maxResults int) ([]rawItem, error)
}

// searchSource adapts a search.Client into a Source.
type searchSource struct {
	client search.Client
}

func (s *searchSource) Type() string { return "web_search" }

func (s *searchSource) Collect(ctx context.Context, query string, maxResults int) ([]rawItem, error) {
	hits, err := s.client.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	items := make([]rawItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, rawItem{
			Content:     hit.Snippet,
			Title:       hit.Title,
			URL:         hit.Link,
			SourceType:  hit.Source,
			Query:       query,
			CollectedAt: now,
		})
	}
	return items, nil
}

// Explorer runs the exploration pipeline. Caches are owned by the explorer
// and mutated only under its lock; size trimming runs inline.
type Explorer struct {
	mu       sync.Mutex
	cfg      config.ExplorerConfig
	sources  []Source
	analyzer llm.SemanticAnalyzer // optional

	knowledgeCache []types.KnowledgeItem
	seedCache      []types.ThinkingSeed
	history        []types.ExplorationResult

	scoreboard map[types.ExplorationStrategy]*strategyScore
}

// strategyScore tracks historical performance per strategy.
type strategyScore struct {
	Runs       int
	QualitySum float64
	SuccessSum float64
}

func (s *strategyScore) mean() float64 {
	if s.Runs == 0 {
		return 0
	}
	return (s.QualitySum + s.SuccessSum) / float64(2*s.Runs)
}

// New creates an Explorer. searchClient may be nil when web search is
// disabled; analyzer is optional.
func New(cfg config.ExplorerConfig, searchClient search.Client, analyzer llm.SemanticAnalyzer) *Explorer {
	e := &Explorer{
		cfg:        cfg,
		analyzer:   analyzer,
		scoreboard: make(map[types.ExplorationStrategy]*strategyScore),
	}
	if searchClient != nil && cfg.EnableWebSearch {
		e.sources = append(e.sources, &searchSource{client: searchClient})
	}
	return e
}

// AddSource registers an additional information source.
func (e *Explorer) AddSource(src Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources = append(e.sources, src)
}

// Explore runs the full pipeline over the given targets. strategy may be
// empty, in which case it is selected per the dual-track rules. Errors are
// absorbed into the result status; this method never panics out.
func (e *Explorer) Explore(ctx context.Context, targets []types.ExplorationTarget, strategy types.ExplorationStrategy) (result types.ExplorationResult) {
	start := time.Now()
	result = types.ExplorationResult{
		ExplorationID: "exp_" + uuid.NewString()[:8],
		Targets:       targets,
		Status:        types.StatusSuccess,
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryExplore).Error("exploration %s panicked: %v", result.ExplorationID, r)
			result.Status = types.StatusError
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.ExecutionTime = time.Since(start)
		e.recordRun(&result)
	}()

	if len(targets) == 0 {
		result.Status = types.StatusNoSuitableTasks
		return result
	}

	if strategy == "" || !strategy.Valid() {
		strategy = e.SelectStrategy(ctx, targets)
	}
	result.Strategy = strategy
	logging.Explore("exploration %s: strategy=%s targets=%d", result.ExplorationID, strategy, len(targets))

	// Stage 1 - Collect
	raw := e.collect(ctx, targets, strategy)
	logging.ExploreDebug("exploration %s: collected %d raw items", result.ExplorationID, len(raw))

	// Stage 2 - Evaluate
	knowledge := e.evaluate(raw)
	result.DiscoveredKnowledge = knowledge
	logging.ExploreDebug("exploration %s: %d items survived evaluation", result.ExplorationID, len(knowledge))

	// Stage 3 - Seed
	seeds := e.generateSeeds(knowledge, raw, strategy)
	result.GeneratedSeeds = seeds

	// Stage 4 - Trend
	result.IdentifiedTrends = e.detectTrends(knowledge)

	// Stage 5 - Cross-domain
	result.CrossDomainInsights = e.crossDomainInsights(seeds)

	// Metrics
	result.SuccessRate = targetSuccessRate(targets, knowledge, raw, seeds)
	result.QualityScore = meanQuality(knowledge)

	e.cacheResults(knowledge, seeds)

	logging.Explore("exploration %s done: knowledge=%d seeds=%d trends=%d insights=%d sr=%.2f q=%.2f",
		result.ExplorationID, len(knowledge), len(seeds),
		len(result.IdentifiedTrends), len(result.CrossDomainInsights),
		result.SuccessRate, result.QualityScore)
	return result
}

// targetSuccessRate is the fraction of targets that produced at least one
// knowledge item or one seed whose related targets include the target.
func targetSuccessRate(targets []types.ExplorationTarget, knowledge []types.KnowledgeItem, raw []rawItem, seeds []types.ThinkingSeed) float64 {
	if len(targets) == 0 {
		return 0
	}

	// Map knowledge back to targets via the raw items they came from.
	producedByTarget := make(map[string]bool)
	contentToTarget := make(map[string]string, len(raw))
	for _, item := range raw {
		contentToTarget[item.Content] = item.TargetID
	}
	for _, k := range knowledge {
		if tid, ok := contentToTarget[k.Content]; ok && tid != "" {
			producedByTarget[tid] = true
		}
	}
	for _, seed := range seeds {
		for _, tid := range seed.RelatedTargets() {
			producedByTarget[tid] = true
		}
	}

	produced := 0
	for _, t := range targets {
		if producedByTarget[t.TargetID] {
			produced++
		}
	}
	return float64(produced) / float64(len(targets))
}

func meanQuality(knowledge []types.KnowledgeItem) float64 {
	if len(knowledge) == 0 {
		return 0
	}
	sum := 0.0
	for i := range knowledge {
		sum += knowledge[i].OverallScore()
	}
	return sum / float64(len(knowledge))
}

// recordRun updates the scoreboard and the history cache.
func (e *Explorer) recordRun(result *types.ExplorationResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if result.Strategy != "" {
		score, ok := e.scoreboard[result.Strategy]
		if !ok {
			score = &strategyScore{}
			e.scoreboard[result.Strategy] = score
		}
		score.Runs++
		score.QualitySum += result.QualityScore
		score.SuccessSum += result.SuccessRate
	}

	e.history = append(e.history, *result)
	cap := e.cfg.HistoryCap
	if cap <= 0 {
		cap = 100
	}
	if len(e.history) > cap {
		e.history = e.history[len(e.history)-cap/2:]
	}
}

// History returns a snapshot of recorded exploration results.
func (e *Explorer) History() []types.ExplorationResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.ExplorationResult, len(e.history))
	copy(out, e.history)
	return out
}
