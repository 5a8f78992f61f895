package scheduler

import (
	"context"
	"fmt"
	"time"

	"mindloop/internal/retrospect"
	"mindloop/internal/types"
)

// =============================================================================
// JOB DISPATCH
// =============================================================================
// Retrospection and exploration go to their engines; ideation and synthesis
// run locally and emit structured placeholders until dedicated engines exist.

func (s *Scheduler) dispatch(job types.CognitiveJob) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeoutFor(&job))
	defer cancel()

	switch job.Kind {
	case types.JobRetrospection:
		return s.handleRetrospection(ctx)
	case types.JobExploration:
		return s.handleExploration(ctx, &job)
	case types.JobIdeation:
		return s.handleIdeation(), nil
	case types.JobSynthesis:
		return s.handleSynthesis(), nil
	}
	return nil, fmt.Errorf("unknown job kind %q", job.Kind)
}

func (s *Scheduler) timeoutFor(job *types.CognitiveJob) time.Duration {
	cfg := s.config()
	if job.Kind == types.JobExploration {
		if isUserDirected(job) {
			return cfg.GetUserDirectedTimeout()
		}
		return cfg.GetExplorationTimeout()
	}
	return cfg.GetTaskTimeout()
}

func (s *Scheduler) handleRetrospection(ctx context.Context) (interface{}, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("no retrospection engine configured")
	}
	result := s.engine.Run(ctx, s.store.History(), retrospect.RunOptions{})
	return result, nil
}

func (s *Scheduler) handleExploration(ctx context.Context, job *types.CognitiveJob) (interface{}, error) {
	if s.explorer == nil {
		return nil, fmt.Errorf("no explorer configured")
	}

	var targets []types.ExplorationTarget
	if isUserDirected(job) {
		query, _ := job.Context["user_query"].(string)
		targets = s.explorer.UserDirectedTargets(ctx, query)
	} else {
		targets = s.explorer.AutonomousTargets(recentTurns(s.store.History(), 5))
	}

	var strategy types.ExplorationStrategy
	if job.Context != nil {
		if raw, ok := job.Context["strategy"].(string); ok {
			strategy = types.ExplorationStrategy(raw)
		}
	}
	result := s.explorer.Explore(ctx, targets, strategy)
	return result, nil
}

func recentTurns(history []types.ConversationTurn, n int) []types.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// handleIdeation emits a structured placeholder describing what a dedicated
// ideation engine would elaborate. TODO: route through the dimension creator
// once ideation gets its own prompt set.
func (s *Scheduler) handleIdeation() interface{} {
	snapshot := s.store.CurrentState()
	return map[string]interface{}{
		"type":        "creative_dimensions",
		"total_turns": snapshot.TotalTurns,
		"dimensions": []string{
			"revisit recent tasks from an inverted-assumption angle",
			"look for tool sequences that could be collapsed",
		},
		"generated_at": time.Now(),
	}
}

// handleSynthesis consolidates recent job results into meta-insights.
func (s *Scheduler) handleSynthesis() interface{} {
	s.mu.Lock()
	recent := s.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	kinds := make(map[string]int)
	failures := 0
	for i := range recent {
		kinds[string(recent[i].Kind)]++
		if recent[i].Err != "" {
			failures++
		}
	}
	completed := s.completedJobs
	s.mu.Unlock()

	return map[string]interface{}{
		"type":            "meta_insights",
		"completed_jobs":  completed,
		"recent_kinds":    kinds,
		"recent_failures": failures,
		"generated_at":    time.Now(),
	}
}
