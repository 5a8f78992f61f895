package explorer

import (
	"context"
	"strings"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// STRATEGY SELECTION
// =============================================================================
// Precedence: explicit strategy in target metadata > semantic analysis of the
// user query (confidence >= 0.7) > historical scoreboard > configured default.

// intentStrategies maps semantic intents to exploration strategies.
var intentStrategies = map[string]types.ExplorationStrategy{
	"solution_seeking": types.StrategyGapAnalysis,
	"learning":         types.StrategyDomainExpansion,
	"comparison":       types.StrategyCompetitiveIntelligence,
	"trend_tracking":   types.StrategyTrendMonitoring,
}

// SelectStrategy picks the exploration strategy for a run.
func (e *Explorer) SelectStrategy(ctx context.Context, targets []types.ExplorationTarget) types.ExplorationStrategy {
	// 1. Explicit strategy on any target wins.
	for i := range targets {
		if targets[i].Metadata == nil {
			continue
		}
		if raw, ok := targets[i].Metadata["strategy"].(string); ok {
			if s := types.ExplorationStrategy(raw); s.Valid() {
				logging.ExploreDebug("strategy: explicit %s", s)
				return s
			}
		}
	}

	// 2. Semantic analysis of the user query, when a target carries one and
	// an analyzer is wired.
	if query := firstUserQuery(targets); query != "" {
		if s, ok := e.semanticStrategy(ctx, query); ok {
			return s
		}
		if s, ok := keywordStrategy(query); ok {
			logging.ExploreDebug("strategy: keyword match %s for %q", s, query)
			return s
		}
	}

	// 3. Historical scoreboard: best mean of quality and success rate, with
	// at least one completed run.
	if s, ok := e.bestHistorical(); ok {
		logging.ExploreDebug("strategy: historical best %s", s)
		return s
	}

	// 4. Configured default.
	if s := types.ExplorationStrategy(e.cfg.DefaultStrategy); s.Valid() {
		return s
	}
	return types.StrategyDomainExpansion
}

func firstUserQuery(targets []types.ExplorationTarget) string {
	for i := range targets {
		if q := targets[i].UserQuery(); q != "" {
			return q
		}
	}
	return ""
}

func (e *Explorer) semanticStrategy(ctx context.Context, query string) (types.ExplorationStrategy, bool) {
	if e.analyzer == nil {
		return "", false
	}
	intent, err := e.analyzer.AnalyzeIntent(ctx, query)
	if err != nil {
		logging.ExploreDebug("strategy: intent analysis failed: %v", err)
		return "", false
	}
	if intent.Confidence < 0.7 {
		return "", false
	}
	if s, ok := intentStrategies[intent.Intent]; ok {
		logging.ExploreDebug("strategy: semantic %s (intent=%s conf=%.2f)", s, intent.Intent, intent.Confidence)
		return s, true
	}
	return "", false
}

// keywordStrategy is the no-analyzer fallback for user queries.
func keywordStrategy(query string) (types.ExplorationStrategy, bool) {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "latest", "trend", "emerging", "new in"):
		return types.StrategyTrendMonitoring, true
	case containsAny(lower, "expert", "best practice", "authoritative"):
		return types.StrategyExpertKnowledge, true
	case containsAny(lower, "gap", "missing", "weakness", "what am i missing"):
		return types.StrategyGapAnalysis, true
	case containsAny(lower, "compare", "versus", " vs ", "competitor"):
		return types.StrategyCompetitiveIntelligence, true
	case containsAny(lower, "analogy", "other field", "cross-domain", "borrow"):
		return types.StrategyCrossDomainLearning, true
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (e *Explorer) bestHistorical() (types.ExplorationStrategy, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var best types.ExplorationStrategy
	bestScore := -1.0
	for _, s := range types.AllExplorationStrategies {
		score, ok := e.scoreboard[s]
		if !ok || score.Runs == 0 {
			continue
		}
		if m := score.mean(); m > bestScore {
			bestScore = m
			best = s
		}
	}
	return best, best != ""
}
