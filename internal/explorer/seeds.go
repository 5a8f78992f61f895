package explorer

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"mindloop/internal/types"
)

// =============================================================================
// STAGE 3 - SEED
// =============================================================================
// The top knowledge items by mean component score each yield one thinking
// seed. When at least two items survive, an extra fusion seed combines the
// top three into one cross-cutting prompt. The batch is then truncated to the
// configured maximum.

// seedPrefixes frame the seed content per strategy.
var seedPrefixes = map[types.ExplorationStrategy]string{
	types.StrategyDomainExpansion:         "expand on",
	types.StrategyTrendMonitoring:         "track the implications of",
	types.StrategyGapAnalysis:             "close the gap revealed by",
	types.StrategyCrossDomainLearning:     "transfer across domains",
	types.StrategySerendipityDiscovery:    "follow the unexpected lead in",
	types.StrategyExpertKnowledge:         "apply expert framing to",
	types.StrategyCompetitiveIntelligence: "position against",
}

// fusionMarker tags the combined multi-source seed.
const fusionMarker = "综合创新思路"

func (e *Explorer) generateSeeds(knowledge []types.KnowledgeItem, raw []rawItem, strategy types.ExplorationStrategy) []types.ThinkingSeed {
	if len(knowledge) == 0 {
		return nil
	}

	maxSeeds := e.cfg.MaxSeedsPerExploration
	if maxSeeds <= 0 {
		maxSeeds = 5
	}

	ranked := make([]types.KnowledgeItem, len(knowledge))
	copy(ranked, knowledge)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MeanScore() > ranked[j].MeanScore()
	})
	if len(ranked) > maxSeeds {
		ranked = ranked[:maxSeeds]
	}

	contentToTarget := make(map[string]string, len(raw))
	for i := range raw {
		contentToTarget[raw[i].Content] = raw[i].TargetID
	}

	creativity := types.CreativityMedium
	if strategy == types.StrategyCrossDomainLearning || strategy == types.StrategyExpertKnowledge {
		creativity = types.CreativityHigh
	}

	prefix := seedPrefixes[strategy]
	if prefix == "" {
		prefix = "explore"
	}

	var seeds []types.ThinkingSeed
	for i := range ranked {
		k := &ranked[i]
		seed := types.ThinkingSeed{
			SeedID:          "seed_" + uuid.NewString()[:8],
			Content:         prefix + ": " + k.Content,
			SourceKnowledge: []string{k.KnowledgeID},
			CreativityLevel: creativity,
			Confidence:      k.MeanScore(),
			GenerationContext: map[string]interface{}{
				"strategy": string(strategy),
			},
		}
		if tid := contentToTarget[k.Content]; tid != "" {
			seed.GenerationContext["related_targets"] = []string{tid}
		}
		if strategy == types.StrategyCrossDomainLearning && len(k.Tags) >= 2 {
			seed.CrossDomainConnections = k.Tags[:2]
		}
		seeds = append(seeds, seed)
	}

	// Fusion seed: combine the top three survivors when at least two exist.
	if len(ranked) >= 2 {
		seeds = append(seeds, fusionSeed(ranked, contentToTarget, strategy))
	}

	if len(seeds) > maxSeeds {
		seeds = seeds[:maxSeeds]
	}
	return seeds
}

func fusionSeed(ranked []types.KnowledgeItem, contentToTarget map[string]string, strategy types.ExplorationStrategy) types.ThinkingSeed {
	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}

	var parts []string
	var sourceIDs []string
	var targetIDs []string
	var connections []string
	confSum := 0.0
	seenTarget := make(map[string]bool)
	for i := range top {
		parts = append(parts, truncateRunes(top[i].Content, 50))
		sourceIDs = append(sourceIDs, top[i].KnowledgeID)
		confSum += top[i].MeanScore()
		if tid := contentToTarget[top[i].Content]; tid != "" && !seenTarget[tid] {
			seenTarget[tid] = true
			targetIDs = append(targetIDs, tid)
		}
		if len(top[i].Tags) > 0 {
			connections = append(connections, top[i].Tags[0])
		}
	}

	seed := types.ThinkingSeed{
		SeedID:          "seed_" + uuid.NewString()[:8],
		Content:         strings.Join(parts, " | ") + " " + fusionMarker,
		SourceKnowledge: sourceIDs,
		CreativityLevel: types.CreativityHigh,
		Confidence:      confSum / float64(len(top)),
		GenerationContext: map[string]interface{}{
			"strategy": string(strategy),
			"fusion":   true,
		},
	}
	if len(targetIDs) > 0 {
		seed.GenerationContext["related_targets"] = targetIDs
	}
	if len(connections) >= 2 {
		seed.CrossDomainConnections = connections
	}
	return seed
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
