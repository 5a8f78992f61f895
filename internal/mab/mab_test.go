package mab

import (
	"math"
	"testing"

	"mindloop/internal/types"
)

func TestEnsureArmIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	s.EnsureArm("strat1", "creative")
	s.UpdatePerformance("strat1", true, 0.5, types.SourceUserFeedback)
	s.EnsureArm("strat1", "creative")

	arm, ok := s.Arm("strat1")
	if !ok {
		t.Fatal("arm missing")
	}
	if arm.Pulls != 1 {
		t.Errorf("pulls = %d, want 1 (EnsureArm must not reset)", arm.Pulls)
	}
}

func TestSourceWeighting(t *testing.T) {
	s := NewMemoryStore()
	s.EnsureArm("a", "analytical")

	s.UpdatePerformance("a", true, 1.0, types.SourceUserFeedback)  // x1.0
	s.UpdatePerformance("a", true, 1.0, types.SourceRetrospection) // x0.8
	s.UpdatePerformance("a", true, 1.0, "gut_feeling")             // x0.5 default

	arm, _ := s.Arm("a")
	if math.Abs(arm.TotalReward-2.3) > 1e-9 {
		t.Errorf("total reward = %v, want 2.3", arm.TotalReward)
	}
	if arm.Pulls != 3 || arm.Successes != 3 {
		t.Errorf("pulls/successes = %d/%d, want 3/3", arm.Pulls, arm.Successes)
	}
}

func TestUpdateCreatesMissingArm(t *testing.T) {
	s := NewMemoryStore()
	s.UpdatePerformance("surprise", false, 0.2, types.SourceExploration)

	arm, ok := s.Arm("surprise")
	if !ok {
		t.Fatal("arm not created on the fly")
	}
	if arm.Pulls != 1 || arm.Successes != 0 {
		t.Errorf("arm = %+v", arm)
	}
}

func TestUpdateLogPreservesRawReward(t *testing.T) {
	s := NewMemoryStore()
	s.UpdatePerformance("a", true, 0.12, types.SourceRetrospection)

	updates := s.Updates()
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	// The log records the caller's reward; weighting applies only to the arm.
	if updates[0].Reward != 0.12 {
		t.Errorf("logged reward = %v, want 0.12", updates[0].Reward)
	}
	if updates[0].Source != types.SourceRetrospection {
		t.Errorf("source = %q", updates[0].Source)
	}
}
