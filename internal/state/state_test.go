package state

import (
	"testing"
	"time"

	"mindloop/internal/types"
)

func TestAppendTurnNotifiesListeners(t *testing.T) {
	store := NewMemoryStore()

	var events []Event
	store.AddListener(func(ev Event) { events = append(events, ev) })

	store.AppendTurn(types.ConversationTurn{TurnID: "turn-1", Timestamp: time.Now()})
	store.SetPhase("execution", GoalActive)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventTurnCompleted || events[0].TurnID != "turn-1" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != EventGoalProgress {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestHistoryReturnsACopy(t *testing.T) {
	store := NewMemoryStore()
	store.AppendTurn(types.ConversationTurn{TurnID: "turn-1", UserInput: "original"})

	history := store.History()
	history[0].UserInput = "mutated"

	if got := store.History()[0].UserInput; got != "original" {
		t.Errorf("store turn = %q, mutation leaked through", got)
	}
}

func TestCurrentStateTracksPhaseAndTurns(t *testing.T) {
	store := NewMemoryStore()

	snap := store.CurrentState()
	if snap.CurrentPhase != PhaseCompletion || snap.GoalStatus != GoalAchieved {
		t.Errorf("fresh store snapshot = %+v", snap)
	}

	store.SetPhase("execution", GoalActive)
	store.AppendTurn(types.ConversationTurn{TurnID: "turn-1"})
	store.AppendTurn(types.ConversationTurn{TurnID: "turn-2"})

	snap = store.CurrentState()
	if snap.CurrentPhase != "execution" || snap.GoalStatus != GoalActive || snap.TotalTurns != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}
