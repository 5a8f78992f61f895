package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// GOOGLE GENAI ADAPTER
// =============================================================================

// GenaiClient implements DimensionCreator and PathGenerator against the
// Gemini API. Calls are serialized through a semaphore to respect API rate
// limits.
type GenaiClient struct {
	client    *genai.Client
	model     string
	semaphore chan struct{}
}

// NewGenaiClient creates a Gemini-backed client.
func NewGenaiClient(apiKey, model string) (*GenaiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenaiClient{
		client:    client,
		model:     model,
		semaphore: make(chan struct{}, 1), // Serialize LLM calls (1 at a time)
	}, nil
}

// complete sends one prompt and returns the raw text.
func (c *GenaiClient) complete(ctx context.Context, prompt string) (string, error) {
	c.semaphore <- struct{}{}
	defer func() { <-c.semaphore }()

	timer := logging.StartTimer(logging.CategoryLLM, "GenaiClient.complete")
	defer timer.StopWithThreshold(10 * time.Second)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return result.Text(), nil
}

// dimensionPayload is the JSON shape requested from the model.
type dimensionPayload struct {
	Dimensions []struct {
		Description string  `json:"description"`
		Confidence  float64 `json:"confidence"`
	} `json:"dimensions"`
}

// CreateDynamicDimensions implements DimensionCreator.
func (c *GenaiClient) CreateDynamicDimensions(ctx context.Context, req DimensionRequest) ([]types.Dimension, error) {
	if req.NumDimensions <= 0 {
		req.NumDimensions = 3
	}

	prompt := fmt.Sprintf(
		"Propose %d completely alternative solution angles for the task below.\n"+
			"Creativity level: %s. Mode: %s.\n"+
			"Task: %s\n\n"+
			"Respond with JSON only: {\"dimensions\":[{\"description\":\"...\",\"confidence\":0.0}]}",
		req.NumDimensions, req.CreativityLevel, req.Mode, req.TaskDescription)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var payload dimensionPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("GenAI dimension response unparseable: %w", err)
	}

	dims := make([]types.Dimension, 0, len(payload.Dimensions))
	for _, d := range payload.Dimensions {
		if d.Description == "" {
			continue
		}
		dims = append(dims, types.Dimension{
			DimensionID:     "dim_" + uuid.NewString()[:8],
			Description:     d.Description,
			CreativityLevel: req.CreativityLevel,
			Mode:            req.Mode,
			Confidence:      d.Confidence,
		})
		if len(dims) >= req.NumDimensions {
			break
		}
	}
	logging.LLM("created %d dimensions for task (mode=%s)", len(dims), req.Mode)
	return dims, nil
}

// pathPayload is the JSON shape requested from the model.
type pathPayload struct {
	Paths []struct {
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Confidence  float64 `json:"confidence"`
	} `json:"paths"`
}

// GeneratePaths implements PathGenerator.
func (c *GenaiClient) GeneratePaths(ctx context.Context, thinkingSeed, task string, maxPaths int, mode GenerationMode) ([]types.ReasoningPath, error) {
	if maxPaths <= 0 {
		maxPaths = 4
	}

	framing := "Propose practical reasoning paths"
	if mode == ModeCreativeBypass {
		framing = "Propose breakthrough, non-traditional reasoning paths that bypass conventional approaches"
	}
	prompt := fmt.Sprintf(
		"%s for the task below, nucleated from the thinking seed.\n"+
			"Thinking seed: %s\nTask: %s\nAt most %d paths.\n\n"+
			"Respond with JSON only: {\"paths\":[{\"description\":\"...\",\"category\":\"creative\",\"confidence\":0.0}]}",
		framing, thinkingSeed, task, maxPaths)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var payload pathPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("GenAI path response unparseable: %w", err)
	}

	now := time.Now()
	paths := make([]types.ReasoningPath, 0, len(payload.Paths))
	for _, p := range payload.Paths {
		if p.Description == "" {
			continue
		}
		category := types.PathCategory(p.Category)
		if !category.Valid() {
			category = types.CategoryCreative
		}
		paths = append(paths, types.ReasoningPath{
			PathID:         "genpath_" + uuid.NewString()[:8],
			PathType:       string(category),
			Description:    p.Description,
			PromptTemplate: "Task: {task}\nSeed: {thinking_seed}\n" + p.Description,
			StrategyID:     "genpath_" + uuid.NewString()[:8],
			Metadata: types.PathMetadata{
				CreatedAt: now,
				UpdatedAt: now,
				Category:  category,
				Status:    types.PathExperimental,
			},
			EffectivenessScore: 0.5,
			Confidence:         p.Confidence,
		})
		if len(paths) >= maxPaths {
			break
		}
	}
	logging.LLM("generated %d paths (mode=%s)", len(paths), mode)
	return paths, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response, keeping the outermost JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
