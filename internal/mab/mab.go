// Package mab defines the contract mindloop uses to push new strategies and
// rewards into the host agent's multi-armed-bandit strategy store, plus an
// in-memory reference implementation used by tests and the demo CLI.
package mab

import (
	"sync"
	"time"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// Store is the consumed MAB contract. Both methods must be safe to call from
// worker goroutines.
type Store interface {
	// EnsureArm creates a strategy arm if it does not exist yet.
	EnsureArm(strategyID, pathType string)

	// UpdatePerformance applies a reward to a strategy arm. Source tags let
	// the store apply source-specific weighting.
	UpdatePerformance(strategyID string, success bool, reward float64, source string)
}

// sourceWeights scales rewards by origin. Free-form sources get the
// conservative default.
var sourceWeights = map[string]float64{
	types.SourceUserFeedback:     1.0,
	types.SourceToolVerification: 0.9,
	types.SourceRetrospection:    0.8,
	types.SourceExploration:      0.8,
}

const defaultSourceWeight = 0.5

// Arm tracks one strategy's reward history.
type Arm struct {
	StrategyID  string    `json:"strategy_id"`
	PathType    string    `json:"path_type"`
	Pulls       int       `json:"pulls"`
	Successes   int       `json:"successes"`
	TotalReward float64   `json:"total_reward"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MeanReward returns the average weighted reward per pull.
func (a *Arm) MeanReward() float64 {
	if a.Pulls == 0 {
		return 0
	}
	return a.TotalReward / float64(a.Pulls)
}

// MemoryStore is an in-memory MAB store with per-source reward weighting.
type MemoryStore struct {
	mu      sync.RWMutex
	arms    map[string]*Arm
	updates []types.MABUpdate
}

// NewMemoryStore creates an empty MAB store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{arms: make(map[string]*Arm)}
}

// EnsureArm implements Store.
func (s *MemoryStore) EnsureArm(strategyID, pathType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arms[strategyID]; ok {
		return
	}
	now := time.Now()
	s.arms[strategyID] = &Arm{
		StrategyID: strategyID,
		PathType:   pathType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	logging.MABDebug("created arm %s (type=%s)", strategyID, pathType)
}

// UpdatePerformance implements Store. Unknown arms are created on the fly so
// a missed EnsureArm cannot drop a reward.
func (s *MemoryStore) UpdatePerformance(strategyID string, success bool, reward float64, source string) {
	weight, ok := sourceWeights[source]
	if !ok {
		weight = defaultSourceWeight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	arm, ok := s.arms[strategyID]
	if !ok {
		now := time.Now()
		arm = &Arm{StrategyID: strategyID, CreatedAt: now}
		s.arms[strategyID] = arm
	}

	arm.Pulls++
	if success {
		arm.Successes++
	}
	arm.TotalReward += reward * weight
	arm.UpdatedAt = time.Now()

	s.updates = append(s.updates, types.MABUpdate{
		StrategyID: strategyID,
		Success:    success,
		Reward:     reward,
		Source:     source,
		AppliedAt:  arm.UpdatedAt,
	})
}

// Arm returns a copy of the named arm, if present.
func (s *MemoryStore) Arm(strategyID string) (Arm, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arm, ok := s.arms[strategyID]
	if !ok {
		return Arm{}, false
	}
	return *arm, true
}

// Arms returns a snapshot of all arms.
func (s *MemoryStore) Arms() []Arm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Arm, 0, len(s.arms))
	for _, arm := range s.arms {
		out = append(out, *arm)
	}
	return out
}

// Updates returns the update log in application order.
func (s *MemoryStore) Updates() []types.MABUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.MABUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}
