package llm

import (
	"context"
	"testing"

	"mindloop/internal/types"
)

func TestHeuristicDimensionsDeterministic(t *testing.T) {
	h := NewHeuristicClient()
	req := DimensionRequest{
		TaskDescription: "speed up the nightly ETL job",
		NumDimensions:   3,
		CreativityLevel: types.CreativityHigh,
		Mode:            "retrospective_analysis",
	}

	first, err := h.CreateDynamicDimensions(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.CreateDynamicDimensions(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d dimensions, want 3", len(first))
	}
	for i := range first {
		if first[i].DimensionID != second[i].DimensionID || first[i].Description != second[i].Description {
			t.Errorf("dimension %d not deterministic", i)
		}
		if first[i].CreativityLevel != types.CreativityHigh {
			t.Errorf("creativity = %s", first[i].CreativityLevel)
		}
		if first[i].Mode != "retrospective_analysis" {
			t.Errorf("mode = %s", first[i].Mode)
		}
	}
}

func TestHeuristicPathsCreativeBypass(t *testing.T) {
	h := NewHeuristicClient()

	paths, err := h.GeneratePaths(context.Background(), "find breakthrough solutions", "fix the importer", 2, ModeCreativeBypass)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	for _, p := range paths {
		if p.Metadata.Category != types.CategoryCreative {
			t.Errorf("creative_bypass category = %s, want creative", p.Metadata.Category)
		}
		if p.Metadata.Status != types.PathExperimental {
			t.Errorf("status = %s, want experimental", p.Metadata.Status)
		}
		if p.Confidence < 0.3 {
			t.Errorf("confidence %v would be filtered by the retrospection engine", p.Confidence)
		}
	}

	normal, err := h.GeneratePaths(context.Background(), "seed", "task", 1, ModeNormal)
	if err != nil {
		t.Fatal(err)
	}
	if normal[0].Metadata.Category != types.CategoryAnalytical {
		t.Errorf("normal mode category = %s, want analytical", normal[0].Metadata.Category)
	}
}

func TestHeuristicIntent(t *testing.T) {
	h := NewHeuristicClient()

	got, err := h.AnalyzeIntent(context.Background(), "latest trends in model training")
	if err != nil {
		t.Fatal(err)
	}
	if got.Intent != "trend_tracking" {
		t.Errorf("intent = %q, want trend_tracking", got.Intent)
	}
	if got.Confidence < 0.7 {
		t.Errorf("confidence = %v, want >= 0.7 for a vocabulary hit", got.Confidence)
	}
	if !containsString(got.Domains, "ai") {
		t.Errorf("domains = %v, want ai", got.Domains)
	}

	got, err = h.AnalyzeIntent(context.Background(), "zxqv")
	if err != nil {
		t.Fatal(err)
	}
	if got.Intent != "general" || got.Confidence >= 0.7 {
		t.Errorf("unmatched query intent = %q conf %v", got.Intent, got.Confidence)
	}
}

func TestHeuristicIntentFirstMatchWins(t *testing.T) {
	h := NewHeuristicClient()

	// Matches both solution_seeking ("how to") and comparison ("compare");
	// the earlier vocabulary wins every run.
	for i := 0; i < 20; i++ {
		got, err := h.AnalyzeIntent(context.Background(), "how to compare kafka and pulsar")
		if err != nil {
			t.Fatal(err)
		}
		if got.Intent != "solution_seeking" {
			t.Fatalf("run %d: intent = %q, want solution_seeking", i, got.Intent)
		}
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	s := "héllo wörld, caféin über mañana"
	for n := 0; n <= len([]rune(s)); n++ {
		got := truncate(s, n)
		if runes := len([]rune(got)); runes > n {
			t.Errorf("truncate(%q, %d) kept %d runes", s, n, runes)
		}
		for _, r := range got {
			if r == '�' {
				t.Fatalf("truncate(%q, %d) split a rune: %q", s, n, got)
			}
		}
	}
	if got := truncate("short", 80); got != "short" {
		t.Errorf("truncate below limit = %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go:\n{\"a\":1}\nCheers", `{"a":1}`},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
