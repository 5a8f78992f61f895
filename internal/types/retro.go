package types

import "time"

// =============================================================================
// RETROSPECTION
// =============================================================================

// RetrospectionStrategy selects which historical turn the engine reviews.
type RetrospectionStrategy string

const (
	SelectRandomSampling  RetrospectionStrategy = "random_sampling"
	SelectFailureFocused  RetrospectionStrategy = "failure_focused"
	SelectComplexityBased RetrospectionStrategy = "complexity_based"
	SelectRecentTasks     RetrospectionStrategy = "recent_tasks"
	SelectToolFailure     RetrospectionStrategy = "tool_failure"
	// SelectLowSatisfaction has no rating source yet; it behaves exactly as
	// SelectFailureFocused until user ratings are defined.
	SelectLowSatisfaction RetrospectionStrategy = "low_satisfaction"
)

// AllRetrospectionStrategies lists the closed strategy set.
var AllRetrospectionStrategies = []RetrospectionStrategy{
	SelectRandomSampling,
	SelectFailureFocused,
	SelectComplexityBased,
	SelectRecentTasks,
	SelectToolFailure,
	SelectLowSatisfaction,
}

// Valid reports whether the strategy is one of the closed set.
func (s RetrospectionStrategy) Valid() bool {
	for _, known := range AllRetrospectionStrategies {
		if s == known {
			return true
		}
	}
	return false
}

func (s RetrospectionStrategy) String() string { return string(s) }

// RetrospectionTask wraps the turn selected for review.
type RetrospectionTask struct {
	TaskID       string                `json:"task_id"`
	OriginalTurn *ConversationTurn     `json:"original_turn"`
	Strategy     RetrospectionStrategy `json:"strategy"`
	Complexity   float64               `json:"complexity"` // [0,1]
	SelectedAt   time.Time             `json:"selected_at"`
}

// =============================================================================
// TOOL RETROSPECTION (post-mortem)
// =============================================================================

// ToolUsagePatterns summarizes how tools were used inside one turn.
type ToolUsagePatterns struct {
	CallSequence     []string            `json:"call_sequence"`
	SequenceLength   int                 `json:"sequence_length"`
	UniqueTools      int                 `json:"unique_tools"`
	Diversity        float64             `json:"diversity"` // unique / total
	Frequency        map[string]int      `json:"frequency"`
	MostUsedTool     string              `json:"most_used_tool"`
	PairCombinations []string            `json:"pair_combinations"` // adjacent pairs "a->b"
	ParameterKeys    map[string][]string `json:"parameter_keys"`    // per-tool sorted key sets
	ArgumentCounts   []int               `json:"argument_counts"`
}

// ToolSuccessFactors summarizes what worked.
type ToolSuccessFactors struct {
	OverallSuccessRate float64            `json:"overall_success_rate"`
	PerToolSuccessRate map[string]float64 `json:"per_tool_success_rate"`
	CommonParameters   []string           `json:"common_parameters"` // keys shared by successful calls
}

// ToolFailureAnalysis summarizes what went wrong.
type ToolFailureAnalysis struct {
	FailedTools         []string           `json:"failed_tools"`
	PerToolFailureRate  map[string]float64 `json:"per_tool_failure_rate"`
	ErrorCategories     map[string]int     `json:"error_categories"` // timeout/permission/parameter/network/other
	ConsecutiveFailures bool               `json:"consecutive_failures"`
	CriticalFailures    []string           `json:"critical_failures"` // first/last call failed
}

// ToolRetrospection is the full tool post-mortem block.
type ToolRetrospection struct {
	UsagePatterns           ToolUsagePatterns   `json:"usage_patterns"`
	SuccessFactors          ToolSuccessFactors  `json:"success_factors"`
	FailureAnalysis         ToolFailureAnalysis `json:"failure_analysis"`
	SelectionInsights       []string            `json:"selection_insights"`
	OptimizationSuggestions []string            `json:"optimization_suggestions"`
}

// =============================================================================
// RETROSPECTION RESULTS
// =============================================================================

// TaskCharacteristics are turn-level measurements surfaced as insights.
type TaskCharacteristics struct {
	InputLength  int     `json:"input_length"`
	ToolUsage    int     `json:"tool_usage"` // == len(task.OriginalTurn.ToolCalls)
	MABDecisions int     `json:"mab_decisions"`
	Success      bool    `json:"success"`
	Complexity   float64 `json:"complexity"`
}

// RetrospectionInsights collects the structured findings of the Analyze stage.
type RetrospectionInsights struct {
	TaskCharacteristics TaskCharacteristics `json:"task_characteristics"`
	SuccessPatterns     []string            `json:"success_patterns"`
	FailureCauses       []string            `json:"failure_causes"`
	Improvements        []string            `json:"improvement_suggestions"`
}

// RetrospectionResult is the output of one Select -> Ideate -> Assimilate run.
// Task is nil when no suitable candidate exists (Status explains why).
type RetrospectionResult struct {
	RetroID               string                `json:"retro_id"`
	Task                  *RetrospectionTask    `json:"task,omitempty"`
	Dimensions            []Dimension           `json:"dimensions,omitempty"`
	CreativePaths         []ReasoningPath       `json:"creative_paths,omitempty"`
	Insights              RetrospectionInsights `json:"insights"`
	ToolRetrospection     *ToolRetrospection    `json:"tool_retrospection,omitempty"`
	AssimilatedStrategies []string              `json:"assimilated_strategies,omitempty"`
	MABUpdates            []MABUpdate           `json:"mab_updates,omitempty"`
	ExecutionTime         time.Duration         `json:"execution_time"`
	Status                ResultStatus          `json:"status"`
	Error                 string                `json:"error,omitempty"`
}
