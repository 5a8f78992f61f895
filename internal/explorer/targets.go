package explorer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"mindloop/internal/types"
)

// =============================================================================
// TARGET CONSTRUCTION
// =============================================================================

// UserDirectedTargets builds the target set for a user query. The query is
// carried in target metadata so strategy selection and query construction can
// recover it.
func (e *Explorer) UserDirectedTargets(ctx context.Context, query string) []types.ExplorationTarget {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	target := types.ExplorationTarget{
		TargetID:    "target_" + uuid.NewString()[:8],
		Type:        types.TargetConcept,
		Description: query,
		Priority:    1.0,
		Depth:       1,
		Metadata: map[string]interface{}{
			"exploration_mode": string(types.ModeUserDirected),
			"user_query":       query,
		},
	}

	if e.analyzer != nil {
		if intent, err := e.analyzer.AnalyzeIntent(ctx, query); err == nil {
			target.Keywords = intent.Keywords
			if len(intent.Domains) > 0 {
				target.Metadata["domains"] = intent.Domains
			}
		}
	}
	if len(target.Keywords) == 0 {
		for _, w := range strings.Fields(strings.ToLower(query)) {
			if len(w) > 3 {
				target.Keywords = append(target.Keywords, w)
			}
		}
	}
	return []types.ExplorationTarget{target}
}

// AutonomousTargets derives targets for an autonomous exploration from recent
// conversation turns, falling back to open trends from prior explorations.
func (e *Explorer) AutonomousTargets(recentTurns []types.ConversationTurn) []types.ExplorationTarget {
	var targets []types.ExplorationTarget

	// Recent task inputs are the strongest signal for what matters now.
	for i := len(recentTurns) - 1; i >= 0 && len(targets) < 2; i-- {
		input := strings.TrimSpace(recentTurns[i].UserInput)
		if len(input) < 10 {
			continue
		}
		targets = append(targets, types.ExplorationTarget{
			TargetID:    "target_" + uuid.NewString()[:8],
			Type:        types.TargetConcept,
			Description: truncateRunes(input, 120),
			Priority:    0.7,
			Depth:       1,
			Metadata: map[string]interface{}{
				"exploration_mode": string(types.ModeAutonomous),
			},
		})
	}

	// Previously detected trends keep exploration moving with no recent work.
	if len(targets) == 0 {
		e.mu.Lock()
		for i := len(e.history) - 1; i >= 0 && len(targets) == 0; i-- {
			for _, trend := range e.history[i].IdentifiedTrends {
				targets = append(targets, types.ExplorationTarget{
					TargetID:    "target_" + uuid.NewString()[:8],
					Type:        types.TargetTrend,
					Description: trend.Keyword,
					Keywords:    []string{trend.Keyword},
					Priority:    0.5,
					Depth:       1,
					Metadata: map[string]interface{}{
						"exploration_mode": string(types.ModeAutonomous),
					},
				})
				break
			}
		}
		e.mu.Unlock()
	}
	return targets
}
