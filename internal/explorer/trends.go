package explorer

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"mindloop/internal/types"
)

// =============================================================================
// STAGE 4 - TREND / STAGE 5 - CROSS-DOMAIN
// =============================================================================

const (
	maxTrends       = 3
	trendConfidence = 0.6
)

// detectTrends finds recurring keywords across the discovered knowledge.
// A word counts when longer than three characters and seen in more than one
// item; the top three by frequency become trends.
func (e *Explorer) detectTrends(knowledge []types.KnowledgeItem) []types.Trend {
	if len(knowledge) < 2 {
		return nil
	}

	// Count items per word, not occurrences, so one repetitive item cannot
	// fake a trend.
	itemCount := make(map[string]int)
	supporting := make(map[string][]string)
	for i := range knowledge {
		seen := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(knowledge[i].Content)) {
			w = strings.Trim(w, ".,;:!?\"'()")
			if len(w) <= 3 || seen[w] {
				continue
			}
			seen[w] = true
			itemCount[w]++
			supporting[w] = append(supporting[w], knowledge[i].KnowledgeID)
		}
	}

	type candidate struct {
		word  string
		count int
	}
	var candidates []candidate
	for w, c := range itemCount {
		if c > 1 {
			candidates = append(candidates, candidate{w, c})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].word < candidates[j].word
	})
	if len(candidates) > maxTrends {
		candidates = candidates[:maxTrends]
	}

	trends := make([]types.Trend, 0, len(candidates))
	for _, c := range candidates {
		trends = append(trends, types.Trend{
			TrendID:             "trend_" + uuid.NewString()[:8],
			Keyword:             c.word,
			Frequency:           c.count,
			Confidence:          trendConfidence,
			SupportingKnowledge: supporting[c.word],
		})
	}
	return trends
}

// crossDomainInsights lifts seeds carrying cross-domain connections into
// insights.
func (e *Explorer) crossDomainInsights(seeds []types.ThinkingSeed) []types.CrossDomainInsight {
	var insights []types.CrossDomainInsight
	for i := range seeds {
		seed := &seeds[i]
		if len(seed.CrossDomainConnections) == 0 {
			continue
		}
		insights = append(insights, types.CrossDomainInsight{
			InsightID:   "insight_" + uuid.NewString()[:8],
			Type:        "cross_domain_connection",
			Description: "connection between " + strings.Join(seed.CrossDomainConnections, " and ") + ": " + truncateRunes(seed.Content, 120),
			SourceSeed:  seed.SeedID,
			Connections: seed.CrossDomainConnections,
			Confidence:  seed.Confidence,
		})
	}
	return insights
}
