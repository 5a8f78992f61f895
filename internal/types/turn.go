package types

import "time"

// =============================================================================
// CONVERSATION TURNS (consumed, read-only)
// =============================================================================
// Turn lifecycle is owned by the host agent's state store. mindloop never
// mutates turns; it only reads them during retrospection.

// ToolCall records one tool invocation inside a conversation turn.
type ToolCall struct {
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Success    bool                   `json:"success"`
}

// MABDecision records a strategy decision made during a turn.
type MABDecision struct {
	StrategyID string  `json:"strategy_id"`
	Reward     float64 `json:"reward"`
}

// ConversationTurn is one completed user interaction.
type ConversationTurn struct {
	TurnID        string        `json:"turn_id"`
	UserInput     string        `json:"user_input"`
	Response      string        `json:"response"`
	Timestamp     time.Time     `json:"timestamp"`
	Success       bool          `json:"success"`
	Phase         string        `json:"phase"`
	ToolCalls     []ToolCall    `json:"tool_calls,omitempty"`
	ToolResults   []string      `json:"tool_results,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	MABDecisions  []MABDecision `json:"mab_decisions,omitempty"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
}

// Age returns how long ago the turn completed.
func (t *ConversationTurn) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

// FailedToolCalls returns the subset of tool calls that failed.
func (t *ConversationTurn) FailedToolCalls() []ToolCall {
	var failed []ToolCall
	for _, call := range t.ToolCalls {
		if !call.Success {
			failed = append(failed, call)
		}
	}
	return failed
}

// HasToolFailure reports whether any tool call in the turn failed.
func (t *ConversationTurn) HasToolFailure() bool {
	for _, call := range t.ToolCalls {
		if !call.Success {
			return true
		}
	}
	return false
}
