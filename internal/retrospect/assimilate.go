package retrospect

import (
	"errors"
	"fmt"
	"time"

	"mindloop/internal/logging"
	"mindloop/internal/pathlib"
	"mindloop/internal/types"
)

// =============================================================================
// STAGE 3 - ASSIMILATE
// =============================================================================
// New dimensions and creative paths become MAB arms with a small initial
// reward, so the host agent's strategy selection can start exploring them.
// Creative paths are additionally stored in the path library as learned,
// experimental paths.

// ahaMomentBonus scales the initial reward for creative-bypass paths.
const ahaMomentBonus = 1.2

func (e *Engine) assimilate(dims []types.Dimension, paths []types.ReasoningPath) ([]string, []types.MABUpdate) {
	reward := e.cfg.Assimilation.InitialExplorationReward
	if reward <= 0 {
		reward = 0.1
	}

	var strategies []string
	var updates []types.MABUpdate

	inject := e.cfg.Assimilation.EnableMABInjection && e.mabStore != nil

	for i := range dims {
		strategyID := "retro_llm_" + dims[i].DimensionID
		strategies = append(strategies, strategyID)
		if !inject {
			continue
		}
		e.mabStore.EnsureArm(strategyID, "llm_dimension")
		e.mabStore.UpdatePerformance(strategyID, true, reward, types.SourceRetrospection)
		updates = append(updates, types.MABUpdate{
			StrategyID: strategyID,
			Success:    true,
			Reward:     reward,
			Source:     types.SourceRetrospection,
			AppliedAt:  time.Now(),
		})
	}

	for i := range paths {
		path := &paths[i]
		strategyID := path.PathID
		if strategyID == "" {
			strategyID = fmt.Sprintf("creative_%d_%d", time.Now().UnixNano(), i)
		}
		strategies = append(strategies, strategyID)

		if e.library != nil {
			stored := *path
			stored.IsLearned = true
			stored.LearningSource = types.SourceRetrospection
			if err := e.library.Add(&stored); err != nil && !errors.Is(err, pathlib.ErrDuplicateID) {
				logging.RetroWarn("assimilate: storing path %s failed: %v", strategyID, err)
			}
		}

		if !inject {
			continue
		}
		pathReward := reward * ahaMomentBonus
		e.mabStore.EnsureArm(strategyID, path.PathType)
		e.mabStore.UpdatePerformance(strategyID, true, pathReward, types.SourceRetrospection)
		updates = append(updates, types.MABUpdate{
			StrategyID: strategyID,
			Success:    true,
			Reward:     pathReward,
			Source:     types.SourceRetrospection,
			AppliedAt:  time.Now(),
		})
	}

	return strategies, updates
}

// extractInsights produces the structured findings block for a session.
func (e *Engine) extractInsights(task *types.RetrospectionTask, dims []types.Dimension, paths []types.ReasoningPath) types.RetrospectionInsights {
	turn := task.OriginalTurn
	insights := types.RetrospectionInsights{
		TaskCharacteristics: types.TaskCharacteristics{
			InputLength:  len(turn.UserInput),
			ToolUsage:    len(turn.ToolCalls),
			MABDecisions: len(turn.MABDecisions),
			Success:      turn.Success,
			Complexity:   task.Complexity,
		},
	}

	if turn.Success {
		insights.SuccessPatterns = append(insights.SuccessPatterns,
			fmt.Sprintf("task completed with %d tool calls", len(turn.ToolCalls)))
		if len(turn.MABDecisions) > 0 {
			insights.SuccessPatterns = append(insights.SuccessPatterns,
				fmt.Sprintf("%d strategy decisions contributed", len(turn.MABDecisions)))
		}
	} else {
		if turn.ErrorMessage != "" {
			insights.FailureCauses = append(insights.FailureCauses, turn.ErrorMessage)
		}
		if failed := turn.FailedToolCalls(); len(failed) > 0 {
			insights.FailureCauses = append(insights.FailureCauses,
				fmt.Sprintf("%d of %d tool calls failed", len(failed), len(turn.ToolCalls)))
		}
	}

	for i := range dims {
		insights.Improvements = append(insights.Improvements, "alternative angle: "+dims[i].Description)
	}
	for i := range paths {
		insights.Improvements = append(insights.Improvements, "creative path: "+paths[i].Description)
	}
	return insights
}
