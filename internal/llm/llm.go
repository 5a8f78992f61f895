// Package llm defines the LLM-facing contracts mindloop consumes (dimension
// creation, creative path generation, semantic intent analysis) and provides
// a Gemini-backed adapter plus a deterministic heuristic fallback. The core
// never depends on a concrete provider; everything goes through these
// interfaces and the retrospection engine degrades gracefully when they are
// absent.
package llm

import (
	"context"

	"mindloop/internal/types"
)

// GenerationMode selects how the path generator works.
type GenerationMode string

const (
	ModeNormal         GenerationMode = "normal"
	ModeCreativeBypass GenerationMode = "creative_bypass" // Aha-moment generation
)

// DimensionRequest parameterizes dimension creation.
type DimensionRequest struct {
	TaskDescription string
	NumDimensions   int
	CreativityLevel types.CreativityLevel
	Mode            string                 // e.g. retrospective_analysis
	Context         map[string]interface{} // optional extra context
}

// DimensionCreator produces alternative solution angles for a task.
type DimensionCreator interface {
	CreateDynamicDimensions(ctx context.Context, req DimensionRequest) ([]types.Dimension, error)
}

// PathGenerator produces reasoning paths from a thinking seed.
type PathGenerator interface {
	GeneratePaths(ctx context.Context, thinkingSeed, task string, maxPaths int, mode GenerationMode) ([]types.ReasoningPath, error)
}

// IntentResult is one semantic analysis outcome. Confidence below the
// caller's threshold means the heuristics take over.
type IntentResult struct {
	Intent     string   `json:"intent"` // e.g. solution_seeking, learning, comparison
	Domains    []string `json:"domains"`
	Keywords   []string `json:"keywords"`
	Confidence float64  `json:"confidence"`
}

// SemanticAnalyzer is the optional batch intent analyzer.
type SemanticAnalyzer interface {
	AnalyzeIntent(ctx context.Context, query string) (IntentResult, error)
}
