package pathlib

import (
	"testing"

	"mindloop/internal/types"
)

func TestRecommendFiltersAndRanks(t *testing.T) {
	lib := newTestLibrary(t)

	strong := testPath("strong")
	strong.EffectivenessScore = 0.9
	strong.Metadata.SuccessRate = 0.9
	strong.Metadata.UsageCount = 50
	if err := lib.Add(strong); err != nil {
		t.Fatal(err)
	}

	weak := testPath("weak")
	weak.EffectivenessScore = 0.4
	if err := lib.Add(weak); err != nil {
		t.Fatal(err)
	}

	below := testPath("below")
	below.EffectivenessScore = 0.2
	if err := lib.Add(below); err != nil {
		t.Fatal(err)
	}

	experimental := testPath("experimental")
	experimental.EffectivenessScore = 0.95
	experimental.Metadata.Status = types.PathExperimental
	if err := lib.Add(experimental); err != nil {
		t.Fatal(err)
	}

	got := lib.Recommend(nil, 10, 0.3)
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2 (active, above floor)", len(got))
	}
	if got[0].PathID != "strong" || got[1].PathID != "weak" {
		t.Errorf("order = [%s %s], want [strong weak]", got[0].PathID, got[1].PathID)
	}
}

func TestRecommendMinEffectivenessBoundary(t *testing.T) {
	lib := newTestLibrary(t)

	perfect := testPath("perfect")
	perfect.EffectivenessScore = 1.0
	if err := lib.Add(perfect); err != nil {
		t.Fatal(err)
	}
	almost := testPath("almost")
	almost.EffectivenessScore = 0.999
	if err := lib.Add(almost); err != nil {
		t.Fatal(err)
	}

	got := lib.Recommend(nil, 10, 1.0)
	if len(got) != 1 || got[0].PathID != "perfect" {
		t.Fatalf("minEff=1.0: got %d paths, want exactly [perfect]", len(got))
	}
}

func TestRecommendContextMatchBoostsScore(t *testing.T) {
	lib := newTestLibrary(t)

	matched := testPath("matched")
	matched.EffectivenessScore = 0.5
	matched.Metadata.Keywords = []string{"debugging"}
	matched.Metadata.Tags = []string{"go", "tests"}
	if err := lib.Add(matched); err != nil {
		t.Fatal(err)
	}

	plain := testPath("plain")
	plain.EffectivenessScore = 0.55
	if err := lib.Add(plain); err != nil {
		t.Fatal(err)
	}

	// Without context the slightly more effective path wins.
	got := lib.Recommend(nil, 1, 0.3)
	if got[0].PathID != "plain" {
		t.Fatalf("no-context winner = %s, want plain", got[0].PathID)
	}

	// Context match (+0.2 task type, +0.3 full tag overlap) flips the order.
	ctx := &types.PathContext{TaskType: "debugging", Tags: []string{"go", "tests"}}
	got = lib.Recommend(ctx, 1, 0.3)
	if got[0].PathID != "matched" {
		t.Fatalf("context winner = %s, want matched", got[0].PathID)
	}
}

func TestRecommendTieBreaksOnPathID(t *testing.T) {
	lib := newTestLibrary(t)

	for _, id := range []string{"b_path", "a_path"} {
		p := testPath(id)
		p.EffectivenessScore = 0.5
		if err := lib.Add(p); err != nil {
			t.Fatal(err)
		}
	}

	got := lib.Recommend(nil, 2, 0.3)
	if got[0].PathID != "a_path" {
		t.Errorf("tie break winner = %s, want a_path", got[0].PathID)
	}
}
