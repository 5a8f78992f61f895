package retrospect

import (
	"fmt"
	"sort"
	"strings"

	"mindloop/internal/types"
)

// =============================================================================
// TOOL POST-MORTEM
// =============================================================================
// Runs whenever the selected turn has at least one tool call. Everything here
// is derived purely from the turn record.

// analyzeToolUsage builds the full post-mortem block for a selected task.
func analyzeToolUsage(task *types.RetrospectionTask) types.ToolRetrospection {
	turn := task.OriginalTurn
	tr := types.ToolRetrospection{
		UsagePatterns:   usagePatterns(turn.ToolCalls),
		SuccessFactors:  successFactors(turn.ToolCalls),
		FailureAnalysis: failureAnalysis(turn),
	}
	tr.SelectionInsights = selectionInsights(task, &tr.UsagePatterns)
	tr.OptimizationSuggestions = optimizationSuggestions(&tr)
	return tr
}

func usagePatterns(calls []types.ToolCall) types.ToolUsagePatterns {
	p := types.ToolUsagePatterns{
		SequenceLength: len(calls),
		Frequency:      make(map[string]int),
		ParameterKeys:  make(map[string][]string),
	}

	paramKeySets := make(map[string]map[string]bool)
	for _, call := range calls {
		p.CallSequence = append(p.CallSequence, call.ToolName)
		p.Frequency[call.ToolName]++
		p.ArgumentCounts = append(p.ArgumentCounts, len(call.Parameters))

		keys, ok := paramKeySets[call.ToolName]
		if !ok {
			keys = make(map[string]bool)
			paramKeySets[call.ToolName] = keys
		}
		for k := range call.Parameters {
			keys[k] = true
		}
	}

	p.UniqueTools = len(p.Frequency)
	if len(calls) > 0 {
		p.Diversity = float64(p.UniqueTools) / float64(len(calls))
	}

	most, mostCount := "", 0
	for tool, count := range p.Frequency {
		if count > mostCount || (count == mostCount && tool < most) {
			most, mostCount = tool, count
		}
	}
	p.MostUsedTool = most

	for i := 0; i+1 < len(calls); i++ {
		p.PairCombinations = append(p.PairCombinations, calls[i].ToolName+"->"+calls[i+1].ToolName)
	}

	for tool, keys := range paramKeySets {
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		p.ParameterKeys[tool] = sorted
	}
	return p
}

func successFactors(calls []types.ToolCall) types.ToolSuccessFactors {
	f := types.ToolSuccessFactors{
		PerToolSuccessRate: make(map[string]float64),
	}
	if len(calls) == 0 {
		return f
	}

	totals := make(map[string]int)
	successes := make(map[string]int)
	overall := 0
	var commonKeys map[string]bool
	for _, call := range calls {
		totals[call.ToolName]++
		if !call.Success {
			continue
		}
		successes[call.ToolName]++
		overall++

		keys := make(map[string]bool, len(call.Parameters))
		for k := range call.Parameters {
			keys[k] = true
		}
		if commonKeys == nil {
			commonKeys = keys
		} else {
			for k := range commonKeys {
				if !keys[k] {
					delete(commonKeys, k)
				}
			}
		}
	}

	f.OverallSuccessRate = float64(overall) / float64(len(calls))
	for tool, total := range totals {
		f.PerToolSuccessRate[tool] = float64(successes[tool]) / float64(total)
	}
	for k := range commonKeys {
		f.CommonParameters = append(f.CommonParameters, k)
	}
	sort.Strings(f.CommonParameters)
	return f
}

func failureAnalysis(turn *types.ConversationTurn) types.ToolFailureAnalysis {
	calls := turn.ToolCalls
	a := types.ToolFailureAnalysis{
		PerToolFailureRate: make(map[string]float64),
		ErrorCategories:    make(map[string]int),
	}

	totals := make(map[string]int)
	failures := make(map[string]int)
	seenFailed := make(map[string]bool)
	for i, call := range calls {
		totals[call.ToolName]++
		if call.Success {
			continue
		}
		failures[call.ToolName]++
		if !seenFailed[call.ToolName] {
			seenFailed[call.ToolName] = true
			a.FailedTools = append(a.FailedTools, call.ToolName)
		}
		if i > 0 && !calls[i-1].Success {
			a.ConsecutiveFailures = true
		}
	}
	for tool, total := range totals {
		if failures[tool] > 0 {
			a.PerToolFailureRate[tool] = float64(failures[tool]) / float64(total)
		}
	}

	if len(calls) > 0 {
		if !calls[0].Success {
			a.CriticalFailures = append(a.CriticalFailures, "first call failed: "+calls[0].ToolName)
		}
		if last := calls[len(calls)-1]; !last.Success {
			a.CriticalFailures = append(a.CriticalFailures, "last call failed: "+last.ToolName)
		}
	}

	if turn.ErrorMessage != "" {
		a.ErrorCategories[categorizeError(turn.ErrorMessage)]++
	}
	for _, result := range turn.ToolResults {
		lower := strings.ToLower(result)
		if strings.Contains(lower, "error") || strings.Contains(lower, "fail") {
			a.ErrorCategories[categorizeError(result)]++
		}
	}
	return a
}

// categorizeError buckets an error message by substring.
func categorizeError(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") || strings.Contains(lower, "deadline"):
		return "timeout"
	case strings.Contains(lower, "permission") || strings.Contains(lower, "denied") || strings.Contains(lower, "unauthorized"):
		return "permission"
	case strings.Contains(lower, "parameter") || strings.Contains(lower, "argument") || strings.Contains(lower, "invalid"):
		return "parameter"
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection") || strings.Contains(lower, "dns"):
		return "network"
	default:
		return "other"
	}
}

// readTools and writeTools drive read-before-write detection. Matching is by
// substring so host-specific tool names still classify.
var (
	readToolMarkers  = []string{"read", "grep", "search", "list", "get", "find", "cat"}
	writeToolMarkers = []string{"write", "edit", "create", "delete", "update", "put", "patch"}
)

func isReadTool(name string) bool  { return matchesAny(name, readToolMarkers) }
func isWriteTool(name string) bool { return matchesAny(name, writeToolMarkers) }

func matchesAny(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func selectionInsights(task *types.RetrospectionTask, p *types.ToolUsagePatterns) []string {
	var insights []string

	switch {
	case task.Complexity > 0.6 && p.SequenceLength < 2:
		insights = append(insights, "tool under-use: complex task solved with minimal tooling")
	case task.Complexity < 0.3 && p.SequenceLength > 5:
		insights = append(insights, "tool over-use: simple task required many tool calls")
	}

	switch {
	case p.SequenceLength > 0 && p.Diversity < 0.3:
		insights = append(insights, fmt.Sprintf("tool over-reliance: diversity %.2f, dominated by %s", p.Diversity, p.MostUsedTool))
	case p.Diversity > 0.8:
		insights = append(insights, fmt.Sprintf("well-explored tool space: diversity %.2f", p.Diversity))
	}

	// Ordering: did a read-class tool precede the first write-class tool?
	firstWrite := -1
	firstRead := -1
	for i, tool := range p.CallSequence {
		if firstRead < 0 && isReadTool(tool) {
			firstRead = i
		}
		if firstWrite < 0 && isWriteTool(tool) {
			firstWrite = i
		}
	}
	if firstWrite >= 0 {
		if firstRead >= 0 && firstRead < firstWrite {
			insights = append(insights, "read-before-write ordering observed")
		} else {
			insights = append(insights, "write issued without a prior read; consider read-before-write ordering")
		}
	}
	return insights
}

func optimizationSuggestions(tr *types.ToolRetrospection) []string {
	var suggestions []string
	p := &tr.UsagePatterns

	// A single tool carrying most of the sequence suggests consolidation.
	if p.SequenceLength > 2 && p.MostUsedTool != "" {
		if share := float64(p.Frequency[p.MostUsedTool]) / float64(p.SequenceLength); share > 0.5 {
			suggestions = append(suggestions, fmt.Sprintf(
				"reduce reliance on %s (%d of %d calls); batch or widen its queries",
				p.MostUsedTool, p.Frequency[p.MostUsedTool], p.SequenceLength))
		}
	}

	for _, tool := range tr.FailureAnalysis.FailedTools {
		suggestions = append(suggestions, fmt.Sprintf(
			"review %s usage: failure rate %.0f%%",
			tool, tr.FailureAnalysis.PerToolFailureRate[tool]*100))
	}
	if tr.FailureAnalysis.ConsecutiveFailures {
		suggestions = append(suggestions, "back off after a failed call instead of retrying immediately")
	}
	for category, count := range tr.FailureAnalysis.ErrorCategories {
		switch category {
		case "timeout":
			suggestions = append(suggestions, "raise timeouts or narrow the operation scope")
		case "parameter":
			suggestions = append(suggestions, "validate tool parameters before invocation")
		case "network":
			suggestions = append(suggestions, "add retry with backoff for network operations")
		case "permission":
			suggestions = append(suggestions, "check access rights before invoking restricted tools")
		default:
			suggestions = append(suggestions, fmt.Sprintf(
				"inspect %d uncategorized %s errors for a recurring cause", count, category))
		}
	}
	return suggestions
}
