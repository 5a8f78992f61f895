package logging

import "testing"

// Every category's convenience funcs must be safe no-ops before Initialize
// runs; subsystems log during construction.
func TestConvenienceFuncsSafeWithoutInitialize(t *testing.T) {
	Scheduler("scheduler %d", 1)
	SchedulerDebug("scheduler %d", 1)
	Retro("retro")
	RetroDebug("retro")
	Explore("explore")
	ExploreDebug("explore")
	PathLib("pathlib")
	PathLibDebug("pathlib")
	MAB("mab %s", "arm")
	MABDebug("mab %s", "arm")
	Store("store")
	StoreDebug("store")
	Search("search")
	SearchDebug("search")
	LLM("llm")
	LLMDebug("llm")
	Config("config")
	ConfigDebug("config")
}

func TestGetBindsCategory(t *testing.T) {
	l := Get(CategoryMAB)
	if l == nil {
		t.Fatal("nil logger")
	}
	if l.category != CategoryMAB {
		t.Errorf("category = %q, want %q", l.category, CategoryMAB)
	}
}
