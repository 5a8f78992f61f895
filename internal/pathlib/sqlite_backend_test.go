package pathlib

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mindloop/internal/types"
)

func TestSQLiteBackendRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.db")

	backend, err := NewSQLiteBackend(file)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	original := &types.ReasoningPath{
		PathID:         "p1",
		PathType:       string(types.CategoryCreative),
		Description:    "invert the problem",
		PromptTemplate: "Task: {task}\nSeed: {thinking_seed}",
		StrategyID:     "p1",
		InstanceID:     "instance-1",
		Metadata: types.PathMetadata{
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     "1.0",
			Category:    types.CategoryCreative,
			Status:      types.PathExperimental,
			UsageCount:  7,
			SuccessRate: 0.71,
			Tags:        []string{"inversion"},
		},
		IsLearned:          true,
		LearningSource:     types.SourceExploration,
		EffectivenessScore: 0.55,
	}
	if err := backend.Save(original); err != nil {
		t.Fatal(err)
	}
	if err := backend.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	loaded, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := loaded["p1"]
	if !ok {
		t.Fatalf("path p1 missing after reopen; got %d paths", len(loaded))
	}
	if diff := cmp.Diff(original, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteBackendUpsertKeepsOneRow(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.db")

	backend, err := NewSQLiteBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	p := testPath("p1")
	if err := backend.Save(p); err != nil {
		t.Fatal(err)
	}
	p.EffectivenessScore = 0.9
	if err := backend.Save(p); err != nil {
		t.Fatal(err)
	}

	loaded, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d paths, want 1 after upsert", len(loaded))
	}
	if loaded["p1"].EffectivenessScore != 0.9 {
		t.Errorf("effectiveness = %v, want the updated 0.9", loaded["p1"].EffectivenessScore)
	}
}

func TestSQLiteBackendSaveAllBatch(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.db")

	backend, err := NewSQLiteBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()

	batch := []*types.ReasoningPath{testPath("a"), testPath("b"), testPath("c")}
	if err := backend.SaveAll(batch); err != nil {
		t.Fatal(err)
	}

	loaded, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d paths, want 3", len(loaded))
	}
}
