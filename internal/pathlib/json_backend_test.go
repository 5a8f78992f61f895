package pathlib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mindloop/internal/types"
)

func TestJSONBackendRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")

	backend, err := NewJSONBackend(file)
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

	reopened, err := NewJSONBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := loaded["p1"]
	if !ok {
		t.Fatalf("path p1 missing after reload; got %d paths", len(loaded))
	}
	if diff := cmp.Diff(original, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONBackendMissingFileIsEmpty(t *testing.T) {
	backend, err := NewJSONBackend(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Errorf("missing file yielded %d paths, want 0", len(loaded))
	}
}

func TestJSONBackendSkipsMalformedMetadata(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")

	doc := map[string]interface{}{
		"metadata": map[string]interface{}{"version": "1.0", "total_paths": 2},
		"paths": map[string]interface{}{
			"good": map[string]interface{}{
				"path_type":           "analytical",
				"description":         "fine",
				"metadata":            map[string]interface{}{"status": "active"},
				"effectiveness_score": 0.5,
			},
			"broken": map[string]interface{}{
				"path_type":           "analytical",
				"description":         "metadata missing",
				"metadata":            nil,
				"effectiveness_score": 0.5,
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatal(err)
	}

	backend, err := NewJSONBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d paths, want 1 (malformed skipped)", len(loaded))
	}
	if _, ok := loaded["good"]; !ok {
		t.Error("well-formed path missing")
	}
}

func TestLibraryPersistsThroughJSONBackend(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.json")

	backend, err := NewJSONBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	lib, err := New(backend)
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Add(testPath("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := lib.UpdatePerformance("persisted", true, 1.5, nil); err != nil {
		t.Fatal(err)
	}
	if err := lib.Close(); err != nil {
		t.Fatal(err)
	}

	backend2, err := NewJSONBackend(file)
	if err != nil {
		t.Fatal(err)
	}
	lib2, err := New(backend2)
	if err != nil {
		t.Fatal(err)
	}
	got, err := lib2.Get("persisted")
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.UsageCount != 1 {
		t.Errorf("usage_count after reload = %d, want 1", got.Metadata.UsageCount)
	}
}
