package retrospect

import (
	"context"
	"fmt"

	"mindloop/internal/llm"
	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// STAGE 2 - IDEATE
// =============================================================================
// Two parallel activators: LLM dimension creation over the original question
// and answer, and creative-bypass path generation seeded from the original
// input. Either can be disabled or absent; failures degrade to empty output.

func (e *Engine) ideate(ctx context.Context, task *types.RetrospectionTask) ([]types.Dimension, []types.ReasoningPath) {
	var dims []types.Dimension
	var paths []types.ReasoningPath

	turn := task.OriginalTurn

	if e.cfg.Ideation.EnableLLMDimensions && e.dimensions != nil {
		maxDims := e.cfg.Ideation.MaxNewDimensions
		if maxDims <= 0 {
			maxDims = 3
		}
		req := llm.DimensionRequest{
			TaskDescription: retrospectivePrompt(turn),
			NumDimensions:   maxDims,
			CreativityLevel: types.CreativityHigh,
			Mode:            "retrospective_analysis",
		}
		created, err := e.dimensions.CreateDynamicDimensions(ctx, req)
		if err != nil {
			logging.RetroWarn("ideate: dimension creation failed: %v", err)
		} else {
			dims = created
			if len(dims) > maxDims {
				dims = dims[:maxDims]
			}
		}
	}

	if e.cfg.Ideation.EnableAhaMoment && e.generator != nil {
		maxPaths := e.cfg.Ideation.MaxCreativePaths
		if maxPaths <= 0 {
			maxPaths = 4
		}
		seed := "find breakthrough, non-traditional solutions for: " + turn.UserInput
		generated, err := e.generator.GeneratePaths(ctx, seed, turn.UserInput, maxPaths, llm.ModeCreativeBypass)
		if err != nil {
			logging.RetroWarn("ideate: creative path generation failed: %v", err)
		} else {
			paths = filterLowConfidence(generated)
		}
	}

	return dims, paths
}

// minPathConfidence drops speculative creative paths before assimilation.
const minPathConfidence = 0.3

func filterLowConfidence(paths []types.ReasoningPath) []types.ReasoningPath {
	kept := paths[:0]
	for _, p := range paths {
		if p.Confidence >= minPathConfidence {
			kept = append(kept, p)
		}
	}
	return kept
}

// retrospectivePrompt frames the original exchange as a request for
// completely alternative solution angles.
func retrospectivePrompt(turn *types.ConversationTurn) string {
	outcome := "succeeded"
	if !turn.Success {
		outcome = "failed"
	}
	return fmt.Sprintf(
		"A past task %s. Original question: %s\nOriginal answer: %s\n"+
			"Propose completely alternative solution angles that were not tried.",
		outcome, turn.UserInput, turn.Response)
}
