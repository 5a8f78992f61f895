// Package retrospect implements the retrospection pipeline: Select a past
// conversation turn, Ideate alternative angles for it (LLM dimensions plus
// creative-bypass paths), and Assimilate the results into the strategy store
// and the path library. A tool post-mortem runs whenever the selected turn
// used tools.
package retrospect

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mindloop/internal/config"
	"mindloop/internal/llm"
	"mindloop/internal/logging"
	"mindloop/internal/mab"
	"mindloop/internal/pathlib"
	"mindloop/internal/types"
)

// Engine runs retrospection sessions. All collaborators except the config are
// optional; missing ones degrade the corresponding stage instead of failing
// the run.
type Engine struct {
	cfg        config.RetrospectionConfig
	dimensions llm.DimensionCreator
	generator  llm.PathGenerator
	mabStore   mab.Store
	library    *pathlib.Library
}

// New creates a retrospection engine.
func New(cfg config.RetrospectionConfig, dimensions llm.DimensionCreator, generator llm.PathGenerator, mabStore mab.Store, library *pathlib.Library) *Engine {
	return &Engine{
		cfg:        cfg,
		dimensions: dimensions,
		generator:  generator,
		mabStore:   mabStore,
		library:    library,
	}
}

// RunOptions override the configured selection behavior for one session.
// The zero value runs with the configured defaults.
type RunOptions struct {
	// Strategy overrides the configured selection strategy when valid.
	Strategy types.RetrospectionStrategy

	// TargetTaskID pins the session to one specific turn, bypassing the
	// candidate filters. An unknown ID yields a no_suitable_tasks result
	// instead of falling back to selection.
	TargetTaskID string
}

// Run executes one Select -> Ideate -> Assimilate session over the given
// turn history. Errors are folded into the result status; Run never returns
// an error to the scheduler loop.
func (e *Engine) Run(ctx context.Context, history []types.ConversationTurn, opts RunOptions) (result types.RetrospectionResult) {
	start := time.Now()
	result = types.RetrospectionResult{
		RetroID: "retro_" + uuid.NewString()[:8],
		Status:  types.StatusSuccess,
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryRetro).Error("retrospection %s panicked: %v", result.RetroID, r)
			result.Task = nil
			result.Status = types.StatusError
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.ExecutionTime = time.Since(start)
	}()

	strategy := opts.Strategy
	if !strategy.Valid() {
		strategy = types.RetrospectionStrategy(e.cfg.TaskSelection.DefaultStrategy)
	}
	if !strategy.Valid() {
		strategy = types.SelectFailureFocused
	}

	var task *types.RetrospectionTask
	if opts.TargetTaskID != "" {
		task = targetedTask(history, opts.TargetTaskID, strategy, time.Now())
		if task == nil {
			result.Status = types.StatusNoSuitableTasks
			result.Error = fmt.Sprintf("turn %q not found in history", opts.TargetTaskID)
			logging.RetroDebug("retrospection %s: target turn %q not in history", result.RetroID, opts.TargetTaskID)
			return result
		}
	} else {
		task = e.selectTask(history, strategy, time.Now())
	}
	if task == nil {
		result.Status = types.StatusNoSuitableTasks
		logging.RetroDebug("retrospection %s: no suitable tasks (strategy=%s, history=%d)", result.RetroID, strategy, len(history))
		return result
	}
	result.Task = task
	logging.Retro("retrospection %s: selected turn %s (strategy=%s complexity=%.2f)",
		result.RetroID, task.OriginalTurn.TurnID, strategy, task.Complexity)

	result.Dimensions, result.CreativePaths = e.ideate(ctx, task)

	result.Insights = e.extractInsights(task, result.Dimensions, result.CreativePaths)

	if len(task.OriginalTurn.ToolCalls) > 0 {
		tr := analyzeToolUsage(task)
		result.ToolRetrospection = &tr
	}

	result.AssimilatedStrategies, result.MABUpdates = e.assimilate(result.Dimensions, result.CreativePaths)

	logging.Retro("retrospection %s done: dims=%d paths=%d assimilated=%d",
		result.RetroID, len(result.Dimensions), len(result.CreativePaths), len(result.AssimilatedStrategies))
	return result
}
