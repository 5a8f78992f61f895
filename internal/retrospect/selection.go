package retrospect

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"mindloop/internal/types"
)

// =============================================================================
// STAGE 1 - SELECT
// =============================================================================

// minCandidateAge keeps the engine off turns the agent may still be acting on.
const minCandidateAge = 60 * time.Second

// minInputLength filters out trivial turns.
const minInputLength = 10

// selectTask picks one turn from the history per the strategy, or nil when
// the candidate pool is empty.
func (e *Engine) selectTask(history []types.ConversationTurn, strategy types.RetrospectionStrategy, now time.Time) *types.RetrospectionTask {
	candidates := e.candidates(history, now)
	if len(candidates) == 0 {
		return nil
	}

	var picked *types.ConversationTurn
	switch strategy {
	case types.SelectRandomSampling:
		picked = candidates[rand.Intn(len(candidates))]
	case types.SelectFailureFocused, types.SelectLowSatisfaction:
		// low_satisfaction has no rating signal yet and shares the
		// failure-focused behavior.
		picked = pickFailure(candidates)
	case types.SelectComplexityBased:
		picked = pickMostComplex(candidates)
	case types.SelectRecentTasks:
		picked = pickLatest(candidates)
	case types.SelectToolFailure:
		picked = pickToolFailure(candidates)
	default:
		picked = candidates[rand.Intn(len(candidates))]
	}
	if picked == nil {
		return nil
	}

	return &types.RetrospectionTask{
		TaskID:       "retrotask_" + uuid.NewString()[:8],
		OriginalTurn: picked,
		Strategy:     strategy,
		Complexity:   TurnComplexity(picked),
		SelectedAt:   now,
	}
}

// targetedTask builds a task for one explicitly requested turn, bypassing
// the candidate filters. Returns nil when the turn is not in the history.
func targetedTask(history []types.ConversationTurn, turnID string, strategy types.RetrospectionStrategy, now time.Time) *types.RetrospectionTask {
	for i := range history {
		if history[i].TurnID != turnID {
			continue
		}
		turn := &history[i]
		return &types.RetrospectionTask{
			TaskID:       "retrotask_" + uuid.NewString()[:8],
			OriginalTurn: turn,
			Strategy:     strategy,
			Complexity:   TurnComplexity(turn),
			SelectedAt:   now,
		}
	}
	return nil
}

// candidates filters the history to reviewable turns: settled for at least a
// minute, younger than the configured ceiling, with non-trivial input.
func (e *Engine) candidates(history []types.ConversationTurn, now time.Time) []*types.ConversationTurn {
	maxAge := time.Duration(e.cfg.TaskSelection.MaxTaskAgeHours * float64(time.Hour))
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	var out []*types.ConversationTurn
	for i := range history {
		turn := &history[i]
		age := turn.Age(now)
		if age < minCandidateAge || age > maxAge {
			continue
		}
		if len(turn.UserInput) < minInputLength {
			continue
		}
		out = append(out, turn)
	}
	return out
}

// pickFailure selects uniformly among failed turns, falling back to a random
// candidate when nothing failed.
func pickFailure(candidates []*types.ConversationTurn) *types.ConversationTurn {
	var failed []*types.ConversationTurn
	for _, turn := range candidates {
		if !turn.Success {
			failed = append(failed, turn)
		}
	}
	if len(failed) > 0 {
		return failed[rand.Intn(len(failed))]
	}
	return candidates[rand.Intn(len(candidates))]
}

func pickToolFailure(candidates []*types.ConversationTurn) *types.ConversationTurn {
	var failed []*types.ConversationTurn
	for _, turn := range candidates {
		if turn.HasToolFailure() {
			failed = append(failed, turn)
		}
	}
	if len(failed) > 0 {
		return failed[rand.Intn(len(failed))]
	}
	return candidates[rand.Intn(len(candidates))]
}

func pickMostComplex(candidates []*types.ConversationTurn) *types.ConversationTurn {
	best := candidates[0]
	bestScore := TurnComplexity(best)
	for _, turn := range candidates[1:] {
		if score := TurnComplexity(turn); score > bestScore {
			best, bestScore = turn, score
		}
	}
	return best
}

func pickLatest(candidates []*types.ConversationTurn) *types.ConversationTurn {
	best := candidates[0]
	for _, turn := range candidates[1:] {
		if turn.Timestamp.After(best.Timestamp) {
			best = turn
		}
	}
	return best
}

// TurnComplexity scores a turn in [0,1] from input length, tool usage, MAB
// decisions and execution time. The components cap at 0.3/0.4/0.2/0.1.
func TurnComplexity(turn *types.ConversationTurn) float64 {
	input := float64(len(turn.UserInput)) / 500.0
	if input > 1 {
		input = 1
	}

	tools := float64(len(turn.ToolCalls)) * 0.2
	if tools > 0.4 {
		tools = 0.4
	}

	decisions := float64(len(turn.MABDecisions)) * 0.1
	if decisions > 0.2 {
		decisions = 0.2
	}

	exec := turn.ExecutionTime.Seconds() / 60.0
	if exec > 0.1 {
		exec = 0.1
	}

	score := input*0.3 + tools + decisions + exec
	if score > 1 {
		score = 1
	}
	return score
}
