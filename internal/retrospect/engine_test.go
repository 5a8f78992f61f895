package retrospect

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"mindloop/internal/config"
	"mindloop/internal/llm"
	"mindloop/internal/mab"
	"mindloop/internal/pathlib"
	"mindloop/internal/types"
)

func testRetroConfig() config.RetrospectionConfig {
	return config.RetrospectionConfig{
		TaskSelection: config.TaskSelectionConfig{
			DefaultStrategy: string(types.SelectFailureFocused),
			MaxTaskAgeHours: 24,
		},
		Ideation: config.IdeationConfig{
			EnableLLMDimensions: true,
			EnableAhaMoment:     true,
			MaxNewDimensions:    3,
			MaxCreativePaths:    4,
		},
		Assimilation: config.AssimilationConfig{
			EnableMABInjection:       true,
			InitialExplorationReward: 0.1,
		},
	}
}

func reviewableTurn(id string, success bool) types.ConversationTurn {
	return types.ConversationTurn{
		TurnID:        id,
		UserInput:     "investigate why the nightly batch import stalls",
		Response:      "the importer retried forever on a locked row",
		Timestamp:     time.Now().Add(-10 * time.Minute),
		Success:       success,
		ExecutionTime: 30 * time.Second,
	}
}

func newTestEngine(t *testing.T, cfg config.RetrospectionConfig) (*Engine, *mab.MemoryStore, *pathlib.Library) {
	t.Helper()
	lib, err := pathlib.New(pathlib.NewMemoryBackend())
	if err != nil {
		t.Fatal(err)
	}
	store := mab.NewMemoryStore()
	heuristic := llm.NewHeuristicClient()
	return New(cfg, heuristic, heuristic, store, lib), store, lib
}

func TestRunEmptyHistory(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	result := engine.Run(context.Background(), nil, RunOptions{})
	if result.Status != types.StatusNoSuitableTasks {
		t.Errorf("status = %s, want no_suitable_tasks", result.Status)
	}
	if result.Task != nil {
		t.Error("task set on empty history")
	}
}

func TestCandidateAgeAndLengthFilters(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	now := time.Now()

	history := []types.ConversationTurn{
		{TurnID: "too_fresh", UserInput: "a perfectly long input string", Timestamp: now.Add(-10 * time.Second)},
		{TurnID: "too_old", UserInput: "a perfectly long input string", Timestamp: now.Add(-48 * time.Hour)},
		{TurnID: "too_short", UserInput: "short", Timestamp: now.Add(-5 * time.Minute)},
	}
	if got := engine.candidates(history, now); len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}

	history = append(history, reviewableTurn("ok", true))
	got := engine.candidates(history, now)
	if len(got) != 1 || got[0].TurnID != "ok" {
		t.Fatalf("candidates = %v, want just ok", got)
	}
}

// Scenario: a failed turn with two failing tool calls gets exactly one MAB
// update per dimension (reward 0.1) and one per creative path (reward 0.12),
// all tagged source=retrospection.
func TestAssimilationRewards(t *testing.T) {
	cfg := testRetroConfig()
	cfg.Ideation.MaxNewDimensions = 2
	cfg.Ideation.MaxCreativePaths = 1
	engine, store, lib := newTestEngine(t, cfg)

	turn := reviewableTurn("t_fail", false)
	turn.ToolCalls = []types.ToolCall{
		{ToolName: "http_get", Success: false},
		{ToolName: "http_get", Success: false},
	}

	result := engine.Run(context.Background(), []types.ConversationTurn{turn}, RunOptions{})
	if result.Status != types.StatusSuccess {
		t.Fatalf("status = %s (%s)", result.Status, result.Error)
	}
	if len(result.Dimensions) != 2 {
		t.Fatalf("dimensions = %d, want 2", len(result.Dimensions))
	}
	if len(result.CreativePaths) != 1 {
		t.Fatalf("creative paths = %d, want 1", len(result.CreativePaths))
	}
	if len(result.MABUpdates) != 3 {
		t.Fatalf("MAB updates = %d, want 3", len(result.MABUpdates))
	}

	dimUpdates, pathUpdates := 0, 0
	for _, u := range result.MABUpdates {
		if u.Source != types.SourceRetrospection {
			t.Errorf("update %s source = %q, want retrospection", u.StrategyID, u.Source)
		}
		switch {
		case math.Abs(u.Reward-0.1) < 1e-9:
			dimUpdates++
		case math.Abs(u.Reward-0.12) < 1e-9:
			pathUpdates++
		default:
			t.Errorf("unexpected reward %v for %s", u.Reward, u.StrategyID)
		}
	}
	if dimUpdates != 2 || pathUpdates != 1 {
		t.Errorf("updates split = %d dims / %d paths, want 2/1", dimUpdates, pathUpdates)
	}

	// The store saw every update and the arms exist.
	if got := len(store.Updates()); got != 3 {
		t.Errorf("store recorded %d updates, want 3", got)
	}
	for _, id := range result.AssimilatedStrategies {
		if _, ok := store.Arm(id); !ok {
			t.Errorf("arm %s missing from store", id)
		}
	}

	// The creative path landed in the library as learned.
	stored, err := lib.Get(result.CreativePaths[0].PathID)
	if err != nil {
		t.Fatalf("creative path not in library: %v", err)
	}
	if !stored.IsLearned || stored.LearningSource != types.SourceRetrospection {
		t.Errorf("stored path flags: learned=%v source=%q", stored.IsLearned, stored.LearningSource)
	}
}

func TestAssimilationSkipsMABWhenDisabled(t *testing.T) {
	cfg := testRetroConfig()
	cfg.Assimilation.EnableMABInjection = false
	engine, store, _ := newTestEngine(t, cfg)

	result := engine.Run(context.Background(), []types.ConversationTurn{reviewableTurn("t1", false)}, RunOptions{})
	if result.Status != types.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.MABUpdates) != 0 {
		t.Errorf("MAB updates = %d, want 0 with injection disabled", len(result.MABUpdates))
	}
	if len(store.Updates()) != 0 {
		t.Errorf("store saw %d updates, want 0", len(store.Updates()))
	}
	if len(result.AssimilatedStrategies) == 0 {
		t.Error("strategy IDs should still be reported")
	}
}

func TestSelectionStrategies(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	now := time.Now()

	failed := reviewableTurn("failed", false)
	ok := reviewableTurn("ok", true)
	toolFail := reviewableTurn("tool_fail", true)
	toolFail.ToolCalls = []types.ToolCall{{ToolName: "grep", Success: false}}
	newest := reviewableTurn("newest", true)
	newest.Timestamp = now.Add(-2 * time.Minute)
	complex := reviewableTurn("complex", true)
	complex.UserInput = strings.Repeat("x", 600)
	complex.ToolCalls = []types.ToolCall{{ToolName: "a", Success: true}, {ToolName: "b", Success: true}, {ToolName: "c", Success: true}}

	history := []types.ConversationTurn{failed, ok, toolFail, newest, complex}

	task := engine.selectTask(history, types.SelectFailureFocused, now)
	if task.OriginalTurn.TurnID != "failed" {
		t.Errorf("failure_focused picked %s", task.OriginalTurn.TurnID)
	}

	task = engine.selectTask(history, types.SelectToolFailure, now)
	if task.OriginalTurn.TurnID != "tool_fail" {
		t.Errorf("tool_failure picked %s", task.OriginalTurn.TurnID)
	}

	task = engine.selectTask(history, types.SelectRecentTasks, now)
	if task.OriginalTurn.TurnID != "newest" {
		t.Errorf("recent_tasks picked %s", task.OriginalTurn.TurnID)
	}

	task = engine.selectTask(history, types.SelectComplexityBased, now)
	if task.OriginalTurn.TurnID != "complex" {
		t.Errorf("complexity_based picked %s", task.OriginalTurn.TurnID)
	}

	// low_satisfaction behaves like failure_focused for now.
	task = engine.selectTask(history, types.SelectLowSatisfaction, now)
	if task.OriginalTurn.TurnID != "failed" {
		t.Errorf("low_satisfaction picked %s", task.OriginalTurn.TurnID)
	}
}

func TestRunTargetsSpecificTurn(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	history := []types.ConversationTurn{
		reviewableTurn("t_failed", false),
		reviewableTurn("t_ok", true),
	}

	result := engine.Run(context.Background(), history, RunOptions{TargetTaskID: "t_ok"})
	if result.Status != types.StatusSuccess {
		t.Fatalf("status = %s (%s)", result.Status, result.Error)
	}
	if result.Task == nil || result.Task.OriginalTurn.TurnID != "t_ok" {
		t.Fatalf("task = %+v, want turn t_ok", result.Task)
	}
}

func TestRunUnknownTargetYieldsNoResult(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	history := []types.ConversationTurn{reviewableTurn("t1", false)}

	result := engine.Run(context.Background(), history, RunOptions{TargetTaskID: "t_missing"})
	if result.Status != types.StatusNoSuitableTasks {
		t.Errorf("status = %s, want no_suitable_tasks", result.Status)
	}
	if result.Task != nil {
		t.Error("task set for unknown target")
	}
	if !strings.Contains(result.Error, "t_missing") {
		t.Errorf("error %q does not name the missing turn", result.Error)
	}
}

func TestRunStrategyOverride(t *testing.T) {
	engine, _, _ := newTestEngine(t, testRetroConfig())
	now := time.Now()

	failed := reviewableTurn("t_failed", false)
	failed.Timestamp = now.Add(-20 * time.Minute)
	newest := reviewableTurn("t_newest", true)
	newest.Timestamp = now.Add(-2 * time.Minute)
	history := []types.ConversationTurn{failed, newest}

	// Configured default is failure_focused; the override wins.
	result := engine.Run(context.Background(), history, RunOptions{Strategy: types.SelectRecentTasks})
	if result.Status != types.StatusSuccess {
		t.Fatalf("status = %s (%s)", result.Status, result.Error)
	}
	if result.Task.OriginalTurn.TurnID != "t_newest" {
		t.Errorf("picked %s, want t_newest", result.Task.OriginalTurn.TurnID)
	}
	if result.Task.Strategy != types.SelectRecentTasks {
		t.Errorf("task strategy = %s, want recent_tasks", result.Task.Strategy)
	}
}

func TestTurnComplexityComponents(t *testing.T) {
	minimal := &types.ConversationTurn{UserInput: "tiny input here"}
	if got := TurnComplexity(minimal); got >= 0.1 {
		t.Errorf("minimal complexity = %v, want < 0.1", got)
	}

	maximal := &types.ConversationTurn{
		UserInput:     strings.Repeat("x", 1000),
		ToolCalls:     make([]types.ToolCall, 10),
		MABDecisions:  make([]types.MABDecision, 5),
		ExecutionTime: 10 * time.Minute,
	}
	if got := TurnComplexity(maximal); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("maximal complexity = %v, want 1.0", got)
	}
}

func TestCreativePathConfidenceFilter(t *testing.T) {
	paths := []types.ReasoningPath{
		{PathID: "keep", Confidence: 0.45},
		{PathID: "drop", Confidence: 0.2},
	}
	kept := filterLowConfidence(paths)
	if len(kept) != 1 || kept[0].PathID != "keep" {
		t.Errorf("filter kept %v", kept)
	}
}
