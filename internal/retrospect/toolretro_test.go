package retrospect

import (
	"strings"
	"testing"
	"time"

	"mindloop/internal/types"
)

// Turn with sequence [read_file, grep, grep, grep, grep, write] where the
// final write fails: diversity 3/6, read-before-write observed, last-call
// failure flagged critical, and a suggestion about grep reliance.
func TestToolPostMortem(t *testing.T) {
	turn := &types.ConversationTurn{
		TurnID:    "t1",
		UserInput: "rename the config field across the repository",
		Timestamp: time.Now().Add(-5 * time.Minute),
		Success:   false,
		ToolCalls: []types.ToolCall{
			{ToolName: "read_file", Parameters: map[string]interface{}{"path": "a.go"}, Success: true},
			{ToolName: "grep", Parameters: map[string]interface{}{"pattern": "Field"}, Success: true},
			{ToolName: "grep", Parameters: map[string]interface{}{"pattern": "field"}, Success: true},
			{ToolName: "grep", Parameters: map[string]interface{}{"pattern": "FIELD"}, Success: true},
			{ToolName: "grep", Parameters: map[string]interface{}{"pattern": "fld"}, Success: true},
			{ToolName: "write", Parameters: map[string]interface{}{"path": "a.go", "content": "..."}, Success: false},
		},
	}
	task := &types.RetrospectionTask{
		TaskID:       "task1",
		OriginalTurn: turn,
		Strategy:     types.SelectToolFailure,
		Complexity:   TurnComplexity(turn),
	}

	tr := analyzeToolUsage(task)

	p := tr.UsagePatterns
	if p.SequenceLength != 6 || p.UniqueTools != 3 {
		t.Fatalf("sequence=%d unique=%d, want 6/3", p.SequenceLength, p.UniqueTools)
	}
	if p.Diversity != 0.5 {
		t.Errorf("diversity = %v, want 0.5", p.Diversity)
	}
	if p.MostUsedTool != "grep" {
		t.Errorf("most used = %q, want grep", p.MostUsedTool)
	}
	if len(p.PairCombinations) != 5 || p.PairCombinations[0] != "read_file->grep" {
		t.Errorf("pairs = %v", p.PairCombinations)
	}
	if got := p.ParameterKeys["write"]; len(got) != 2 || got[0] != "content" || got[1] != "path" {
		t.Errorf("write parameter keys = %v, want sorted [content path]", got)
	}

	if tr.SuccessFactors.OverallSuccessRate != 5.0/6.0 {
		t.Errorf("overall success rate = %v", tr.SuccessFactors.OverallSuccessRate)
	}
	if tr.SuccessFactors.PerToolSuccessRate["grep"] != 1.0 {
		t.Errorf("grep success rate = %v", tr.SuccessFactors.PerToolSuccessRate["grep"])
	}

	f := tr.FailureAnalysis
	if len(f.FailedTools) != 1 || f.FailedTools[0] != "write" {
		t.Errorf("failed tools = %v", f.FailedTools)
	}
	if f.PerToolFailureRate["write"] != 1.0 {
		t.Errorf("write failure rate = %v", f.PerToolFailureRate["write"])
	}
	if !containsSubstring(f.CriticalFailures, "last call failed") {
		t.Errorf("critical failures = %v, want last-call flag", f.CriticalFailures)
	}
	if f.ConsecutiveFailures {
		t.Error("no consecutive failures in this sequence")
	}

	if !containsSubstring(tr.SelectionInsights, "read-before-write") {
		t.Errorf("insights = %v, want read-before-write mention", tr.SelectionInsights)
	}

	if !containsSubstring(tr.OptimizationSuggestions, "grep") {
		t.Errorf("suggestions = %v, want one mentioning grep", tr.OptimizationSuggestions)
	}
}

func TestConsecutiveFailuresDetected(t *testing.T) {
	turn := &types.ConversationTurn{
		TurnID:       "t2",
		ErrorMessage: "request timed out after 30s",
		ToolCalls: []types.ToolCall{
			{ToolName: "http_get", Success: false},
			{ToolName: "http_get", Success: false},
			{ToolName: "read_file", Success: true},
		},
	}
	task := &types.RetrospectionTask{OriginalTurn: turn, Complexity: 0.2}

	tr := analyzeToolUsage(task)
	if !tr.FailureAnalysis.ConsecutiveFailures {
		t.Error("consecutive failures not detected")
	}
	if !containsSubstring(tr.FailureAnalysis.CriticalFailures, "first call failed") {
		t.Errorf("critical = %v, want first-call flag", tr.FailureAnalysis.CriticalFailures)
	}
	if tr.FailureAnalysis.ErrorCategories["timeout"] != 1 {
		t.Errorf("error categories = %v, want timeout counted", tr.FailureAnalysis.ErrorCategories)
	}
	if !containsSubstring(tr.OptimizationSuggestions, "back off") {
		t.Errorf("suggestions = %v, want backoff advice", tr.OptimizationSuggestions)
	}
}

func TestUncategorizedErrorsStillGetASuggestion(t *testing.T) {
	tr := types.ToolRetrospection{
		FailureAnalysis: types.ToolFailureAnalysis{
			ErrorCategories: map[string]int{"other": 2},
		},
	}
	suggestions := optimizationSuggestions(&tr)
	if !containsSubstring(suggestions, "2 uncategorized other errors") {
		t.Errorf("suggestions = %v, want uncategorized-error advice", suggestions)
	}
}

func TestErrorCategorization(t *testing.T) {
	cases := map[string]string{
		"operation timed out":          "timeout",
		"permission denied on /etc":    "permission",
		"invalid argument: max_depth":  "parameter",
		"connection refused by broker": "network",
		"something unexpected":         "other",
	}
	for msg, want := range cases {
		if got := categorizeError(msg); got != want {
			t.Errorf("categorizeError(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestUnderAndOverUseInsights(t *testing.T) {
	// Complex task, barely any tools.
	turn := &types.ConversationTurn{
		UserInput: strings.Repeat("x", 600),
		ToolCalls: []types.ToolCall{{ToolName: "read_file", Success: true}},
	}
	task := &types.RetrospectionTask{OriginalTurn: turn, Complexity: 0.7}
	tr := analyzeToolUsage(task)
	if !containsSubstring(tr.SelectionInsights, "under-use") {
		t.Errorf("insights = %v, want under-use", tr.SelectionInsights)
	}

	// Trivial task, many tool calls of one kind.
	calls := make([]types.ToolCall, 7)
	for i := range calls {
		calls[i] = types.ToolCall{ToolName: "grep", Success: true}
	}
	turn = &types.ConversationTurn{UserInput: "simple ask", ToolCalls: calls}
	task = &types.RetrospectionTask{OriginalTurn: turn, Complexity: 0.1}
	tr = analyzeToolUsage(task)
	if !containsSubstring(tr.SelectionInsights, "over-use") {
		t.Errorf("insights = %v, want over-use", tr.SelectionInsights)
	}
	if !containsSubstring(tr.SelectionInsights, "over-reliance") {
		t.Errorf("insights = %v, want over-reliance at diversity %v", tr.SelectionInsights, tr.UsagePatterns.Diversity)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
