// Package types provides shared type definitions used across mindloop packages.
// This package exists to break import cycles between the scheduler, the
// retrospection engine and the knowledge explorer. Types in this package are
// foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"time"
)

// =============================================================================
// COGNITIVE MODES
// =============================================================================

// CognitiveMode represents the scheduler's current operating mode.
type CognitiveMode string

const (
	ModeTaskDriven           CognitiveMode = "task_driven"           // Serving external tasks
	ModeCognitiveIdle        CognitiveMode = "cognitive_idle"        // Idle, background jobs allowed
	ModeDeepReflection       CognitiveMode = "deep_reflection"       // Running retrospection
	ModeCreativeIdeation     CognitiveMode = "creative_ideation"     // Running ideation
	ModeKnowledgeExploration CognitiveMode = "knowledge_exploration" // Running exploration
)

// Valid reports whether the mode is one of the closed set.
func (m CognitiveMode) Valid() bool {
	switch m {
	case ModeTaskDriven, ModeCognitiveIdle, ModeDeepReflection,
		ModeCreativeIdeation, ModeKnowledgeExploration:
		return true
	}
	return false
}

func (m CognitiveMode) String() string { return string(m) }

// =============================================================================
// COGNITIVE JOBS
// =============================================================================

// JobKind categorizes background cognitive work.
type JobKind string

const (
	JobRetrospection JobKind = "retrospection" // Review a past turn
	JobIdeation      JobKind = "ideation"      // Generate creative angles
	JobSynthesis     JobKind = "synthesis"     // Consolidate recent results
	JobExploration   JobKind = "exploration"   // Gather external knowledge
)

// Valid reports whether the kind is one of the closed set.
func (k JobKind) Valid() bool {
	switch k {
	case JobRetrospection, JobIdeation, JobSynthesis, JobExploration:
		return true
	}
	return false
}

func (k JobKind) String() string { return string(k) }

// Job priorities used by the scheduler. Higher wins; equal priorities are FIFO.
const (
	PriorityUserDirected = 10 // User-directed exploration preempts everything
	PriorityRetro        = 7
	PrioritySynthesis    = 6
	PriorityIdeation     = 5
	PriorityAutonomous   = 3
)

// CognitiveJob is a unit of background work enqueued by the scheduler.
// A job is created by the scheduler, consumed exactly once by one worker,
// then dropped.
type CognitiveJob struct {
	JobID             string                 `json:"job_id"`
	Kind              JobKind                `json:"kind"`
	Priority          int                    `json:"priority"` // 1-10, 10 = highest
	Context           map[string]interface{} `json:"context,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	EstimatedDuration time.Duration          `json:"estimated_duration"`
}

// JobResult records the outcome of one executed cognitive job.
type JobResult struct {
	JobID         string        `json:"job_id"`
	Kind          JobKind       `json:"kind"`
	Result        interface{}   `json:"result,omitempty"`
	Err           string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
	Worker        int           `json:"worker"`
	Timestamp     time.Time     `json:"timestamp"`
}

// =============================================================================
// MAB UPDATES
// =============================================================================

// Source tags recognized by the MAB store. Free-form tags are allowed; these
// are the ones with defined weighting.
const (
	SourceUserFeedback     = "user_feedback"
	SourceRetrospection    = "retrospection"
	SourceExploration      = "exploration"
	SourceToolVerification = "tool_verification"
)

// MABUpdate records a single reward pushed into the strategy store.
// Every assimilated strategy carries a source tag identifying its origin.
type MABUpdate struct {
	StrategyID string    `json:"strategy_id"`
	Success    bool      `json:"success"`
	Reward     float64   `json:"reward"`
	Source     string    `json:"source"`
	AppliedAt  time.Time `json:"applied_at"`
}

func (u MABUpdate) String() string {
	return fmt.Sprintf("%s reward=%.3f source=%s", u.StrategyID, u.Reward, u.Source)
}
