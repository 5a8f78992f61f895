package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"mindloop/internal/types"
)

// =============================================================================
// HEURISTIC FALLBACK
// =============================================================================
// HeuristicClient produces deterministic dimensions and paths without any
// API. It keeps the inner monologue running when no provider is configured
// and gives tests a stable collaborator.

// HeuristicClient implements DimensionCreator, PathGenerator and
// SemanticAnalyzer with fixed vocabularies.
type HeuristicClient struct{}

// NewHeuristicClient creates the fallback client.
func NewHeuristicClient() *HeuristicClient { return &HeuristicClient{} }

// dimensionAngles are the fixed alternative-angle framings, cycled per task.
var dimensionAngles = []string{
	"invert the problem: solve for what must NOT happen, then negate",
	"decompose into the smallest independently verifiable steps",
	"borrow a solution shape from an adjacent domain",
	"remove the most constraining assumption and re-derive",
	"optimize for the failure case first, the happy path second",
}

// CreateDynamicDimensions implements DimensionCreator.
func (h *HeuristicClient) CreateDynamicDimensions(ctx context.Context, req DimensionRequest) ([]types.Dimension, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := req.NumDimensions
	if n <= 0 {
		n = 3
	}
	if n > len(dimensionAngles) {
		n = len(dimensionAngles)
	}

	offset := int(hash32(req.TaskDescription)) % len(dimensionAngles)
	dims := make([]types.Dimension, 0, n)
	for i := 0; i < n; i++ {
		angle := dimensionAngles[(offset+i)%len(dimensionAngles)]
		dims = append(dims, types.Dimension{
			DimensionID:     fmt.Sprintf("dim_%08x_%d", hash32(req.TaskDescription), i),
			Description:     angle,
			CreativityLevel: req.CreativityLevel,
			Mode:            req.Mode,
			Confidence:      0.5,
		})
	}
	return dims, nil
}

// GeneratePaths implements PathGenerator.
func (h *HeuristicClient) GeneratePaths(ctx context.Context, thinkingSeed, task string, maxPaths int, mode GenerationMode) ([]types.ReasoningPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxPaths <= 0 {
		maxPaths = 4
	}

	category := types.CategoryAnalytical
	confidence := 0.6
	if mode == ModeCreativeBypass {
		category = types.CategoryCreative
		confidence = 0.45
	}

	now := time.Now()
	base := hash32(thinkingSeed + task)
	paths := make([]types.ReasoningPath, 0, maxPaths)
	for i := 0; i < maxPaths; i++ {
		id := fmt.Sprintf("heur_%08x_%d", base, i)
		paths = append(paths, types.ReasoningPath{
			PathID:         id,
			PathType:       string(category),
			Description:    fmt.Sprintf("variant %d on seed: %s", i+1, truncate(thinkingSeed, 80)),
			PromptTemplate: "Task: {task}\nSeed: {thinking_seed}",
			StrategyID:     id,
			Metadata: types.PathMetadata{
				CreatedAt: now,
				UpdatedAt: now,
				Category:  category,
				Status:    types.PathExperimental,
			},
			EffectivenessScore: 0.5,
			Confidence:         confidence,
		})
	}
	return paths, nil
}

// intentVocabularies drive the keyword fallback for semantic analysis.
// Ordered so the first matching intent wins deterministically.
var intentVocabularies = []struct {
	intent string
	words  []string
}{
	{"solution_seeking", []string{"how to", "solve", "fix", "resolve", "implement"}},
	{"learning", []string{"what is", "learn", "understand", "explain", "tutorial"}},
	{"comparison", []string{"vs", "versus", "compare", "difference", "better"}},
	{"trend_tracking", []string{"latest", "trend", "2024", "2025", "new", "emerging"}},
}

var domainVocabularies = []struct {
	domain string
	words  []string
}{
	{"software", []string{"code", "api", "bug", "deploy", "library", "framework"}},
	{"ai", []string{"model", "llm", "agent", "neural", "training", "prompt"}},
	{"business", []string{"market", "revenue", "customer", "strategy", "product"}},
	{"science", []string{"research", "study", "experiment", "theory", "data"}},
}

// AnalyzeIntent implements SemanticAnalyzer with keyword vocabularies.
// Confidence stays modest so callers fall through to heuristics when an
// actual analyzer matters.
func (h *HeuristicClient) AnalyzeIntent(ctx context.Context, query string) (IntentResult, error) {
	if err := ctx.Err(); err != nil {
		return IntentResult{}, err
	}
	lower := strings.ToLower(query)

	result := IntentResult{Intent: "general", Confidence: 0.3}
	for _, vocab := range intentVocabularies {
		if result.Intent != "general" {
			break
		}
		for _, w := range vocab.words {
			if strings.Contains(lower, w) {
				result.Intent = vocab.intent
				result.Confidence = 0.75
				break
			}
		}
	}
	for _, vocab := range domainVocabularies {
		for _, w := range vocab.words {
			if strings.Contains(lower, w) {
				result.Domains = append(result.Domains, vocab.domain)
				break
			}
		}
	}
	for _, w := range strings.Fields(lower) {
		if len(w) > 3 {
			result.Keywords = append(result.Keywords, w)
		}
	}
	return result, nil
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// truncate shortens to at most n runes without splitting a multibyte one.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
