// Package state defines the contract mindloop consumes from the host agent's
// state store, plus an in-memory reference implementation used by tests and
// the demo CLI. mindloop is a pure subscriber: it never mutates the store.
package state

import (
	"sync"
	"time"

	"mindloop/internal/types"
)

// Phase and goal status values the idle detector keys on.
const (
	PhaseCompletion = "completion"

	GoalAchieved = "achieved"
	GoalFailed   = "failed"
	GoalActive   = "active"
)

// EventKind identifies a state-change notification.
type EventKind string

const (
	EventTurnCompleted EventKind = "turn_completed"
	EventGoalProgress  EventKind = "goal_progress"
)

// Event is delivered to registered listeners. Delivery may be synchronous;
// listeners must return quickly and never block.
type Event struct {
	Kind      EventKind
	TurnID    string
	Timestamp time.Time
}

// Listener receives state-change events. The scheduler tolerates lost
// events by re-checking state on each tick.
type Listener func(Event)

// Snapshot is the minimal state view the scheduler polls.
type Snapshot struct {
	CurrentPhase string
	GoalStatus   string
	TotalTurns   int
}

// Store is the read-only contract over the host agent's state.
type Store interface {
	// CurrentState returns the current phase, goal status and turn count.
	CurrentState() Snapshot

	// History returns the conversation turns, oldest first. Implementations
	// return a snapshot copy; callers must not mutate the turns.
	History() []types.ConversationTurn

	// AddListener registers a state-change listener.
	AddListener(fn Listener)
}

// =============================================================================
// IN-MEMORY REFERENCE IMPLEMENTATION
// =============================================================================

// MemoryStore is an in-memory Store used by tests and the demo CLI.
type MemoryStore struct {
	mu        sync.RWMutex
	phase     string
	goal      string
	turns     []types.ConversationTurn
	listeners []Listener
}

// NewMemoryStore creates an empty store in the completion phase.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		phase: PhaseCompletion,
		goal:  GoalAchieved,
	}
}

// CurrentState implements Store.
func (s *MemoryStore) CurrentState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		CurrentPhase: s.phase,
		GoalStatus:   s.goal,
		TotalTurns:   len(s.turns),
	}
}

// History implements Store.
func (s *MemoryStore) History() []types.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// AddListener implements Store.
func (s *MemoryStore) AddListener(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetPhase updates the current phase and goal status.
func (s *MemoryStore) SetPhase(phase, goalStatus string) {
	s.mu.Lock()
	s.phase = phase
	s.goal = goalStatus
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	ev := Event{Kind: EventGoalProgress, Timestamp: time.Now()}
	for _, fn := range listeners {
		fn(ev)
	}
}

// AppendTurn records a completed turn and notifies listeners.
func (s *MemoryStore) AppendTurn(turn types.ConversationTurn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	ev := Event{Kind: EventTurnCompleted, TurnID: turn.TurnID, Timestamp: time.Now()}
	for _, fn := range listeners {
		fn(ev)
	}
}
