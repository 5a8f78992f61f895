package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// STAGE 1 - COLLECT
// =============================================================================
// Queries are built per target and strategy, then fanned out across all
// registered sources with bounded parallelism. Source failures are logged and
// skipped; collection never fails the pipeline.

// plannedQuery pairs a query string with the target it serves and its role
// in the query group.
type plannedQuery struct {
	Query    string
	TargetID string
	Group    string // primary_focus, contextual_expansion, verification_focused
}

const (
	groupPrimaryFocus        = "primary_focus"
	groupContextualExpansion = "contextual_expansion"
	groupVerificationFocused = "verification_focused"

	maxUserDirectedQueries = 8
	maxAutonomousQueries   = 4
	resultsPerQuery        = 5
)

// collect runs Stage 1: build queries, fan out over sources, gather raw items.
func (e *Explorer) collect(ctx context.Context, targets []types.ExplorationTarget, strategy types.ExplorationStrategy) []rawItem {
	queries := e.buildQueries(targets, strategy)
	if len(queries) == 0 {
		return nil
	}

	e.mu.Lock()
	sources := make([]Source, len(e.sources))
	copy(sources, e.sources)
	e.mu.Unlock()
	if len(sources) == 0 {
		logging.ExploreDebug("collect: no sources registered")
		return nil
	}

	parallel := e.cfg.MaxParallelExplorations
	if parallel <= 0 {
		parallel = 3
	}

	var mu sync.Mutex
	var collected []rawItem

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(parallel)
	for _, src := range sources {
		for _, pq := range queries {
			src, pq := src, pq
			group.Go(func() error {
				items, err := src.Collect(gctx, pq.Query, resultsPerQuery)
				if err != nil {
					logging.ExploreDebug("collect: source=%s query=%q failed: %v", src.Type(), pq.Query, err)
					return nil // Collection failures never abort the run.
				}
				mu.Lock()
				for i := range items {
					if items[i].SourceType == "" {
						items[i].SourceType = src.Type()
					}
					items[i].TargetID = pq.TargetID
					collected = append(collected, items[i])
				}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = group.Wait()
	return collected
}

// buildQueries plans the query set. User-directed targets get up to eight
// queries in three groups derived from the original query; autonomous targets
// get up to four built from keywords and strategy templates.
func (e *Explorer) buildQueries(targets []types.ExplorationTarget, strategy types.ExplorationStrategy) []plannedQuery {
	var queries []plannedQuery
	for i := range targets {
		t := &targets[i]
		if t.Mode() == types.ModeUserDirected {
			queries = append(queries, userDirectedQueries(t, strategy)...)
		} else {
			queries = append(queries, autonomousQueries(t, strategy)...)
		}
	}
	return dedupeQueries(queries)
}

// strategyQueryTemplates expand a user query per strategy. %s is the query.
var strategyQueryTemplates = map[types.ExplorationStrategy][]string{
	types.StrategyDomainExpansion: {
		"%s overview", "%s key concepts", "%s practical applications",
	},
	types.StrategyTrendMonitoring: {
		"%s latest developments", "%s emerging trends", "%s recent breakthroughs",
	},
	types.StrategyGapAnalysis: {
		"%s common pitfalls", "%s limitations", "%s open problems",
	},
	types.StrategyCrossDomainLearning: {
		"%s analogies in other fields", "%s interdisciplinary approaches", "techniques similar to %s",
	},
	types.StrategySerendipityDiscovery: {
		"%s unexpected connections", "%s surprising results", "%s unconventional uses",
	},
	types.StrategyExpertKnowledge: {
		"%s expert analysis", "%s best practices", "%s authoritative guide",
	},
	types.StrategyCompetitiveIntelligence: {
		"%s alternatives comparison", "%s competing approaches", "%s market landscape",
	},
}

func userDirectedQueries(t *types.ExplorationTarget, strategy types.ExplorationStrategy) []plannedQuery {
	base := t.UserQuery()
	if base == "" {
		base = t.Description
	}
	if base == "" {
		return nil
	}

	var queries []plannedQuery

	// Primary focus: the query itself plus strategy-specific expansions.
	queries = append(queries, plannedQuery{Query: base, TargetID: t.TargetID, Group: groupPrimaryFocus})
	for _, tmpl := range strategyQueryTemplates[strategy] {
		queries = append(queries, plannedQuery{
			Query:    fmt.Sprintf(tmpl, base),
			TargetID: t.TargetID,
			Group:    groupPrimaryFocus,
		})
	}

	// Contextual expansion: widen with target keywords.
	for _, kw := range t.Keywords {
		if kw == "" {
			continue
		}
		queries = append(queries, plannedQuery{
			Query:    base + " " + kw,
			TargetID: t.TargetID,
			Group:    groupContextualExpansion,
		})
		if len(queries) >= maxUserDirectedQueries-2 {
			break
		}
	}

	// Verification: counter-evidence for what the primary queries find.
	queries = append(queries,
		plannedQuery{Query: base + " criticism", TargetID: t.TargetID, Group: groupVerificationFocused},
		plannedQuery{Query: base + " evidence", TargetID: t.TargetID, Group: groupVerificationFocused},
	)

	if len(queries) > maxUserDirectedQueries {
		queries = queries[:maxUserDirectedQueries]
	}
	return queries
}

func autonomousQueries(t *types.ExplorationTarget, strategy types.ExplorationStrategy) []plannedQuery {
	base := t.Description
	if base == "" && len(t.Keywords) > 0 {
		base = strings.Join(t.Keywords, " ")
	}
	if base == "" {
		return nil
	}

	queries := []plannedQuery{{Query: base, TargetID: t.TargetID, Group: groupPrimaryFocus}}
	for _, tmpl := range strategyQueryTemplates[strategy] {
		if len(queries) >= maxAutonomousQueries {
			break
		}
		queries = append(queries, plannedQuery{
			Query:    fmt.Sprintf(tmpl, base),
			TargetID: t.TargetID,
			Group:    groupContextualExpansion,
		})
	}
	return queries
}

func dedupeQueries(queries []plannedQuery) []plannedQuery {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		key := strings.ToLower(strings.TrimSpace(q.Query))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
