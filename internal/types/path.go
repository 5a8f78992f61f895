package types

import "time"

// =============================================================================
// REASONING PATHS
// =============================================================================

// PathCategory is the closed set of reasoning-path categories.
type PathCategory string

const (
	CategoryAnalytical    PathCategory = "analytical"
	CategoryCreative      PathCategory = "creative"
	CategoryCritical      PathCategory = "critical"
	CategoryPractical     PathCategory = "practical"
	CategoryCollaborative PathCategory = "collaborative"
	CategoryAdaptive      PathCategory = "adaptive"
	CategorySystematic    PathCategory = "systematic"
	CategoryIntuitive     PathCategory = "intuitive"
	CategoryStrategic     PathCategory = "strategic"
	CategoryExperimental  PathCategory = "experimental"
)

// Valid reports whether the category is one of the closed set.
func (c PathCategory) Valid() bool {
	switch c {
	case CategoryAnalytical, CategoryCreative, CategoryCritical,
		CategoryPractical, CategoryCollaborative, CategoryAdaptive,
		CategorySystematic, CategoryIntuitive, CategoryStrategic,
		CategoryExperimental:
		return true
	}
	return false
}

// PathStatus is the lifecycle state of a reasoning path.
type PathStatus string

const (
	PathActive       PathStatus = "active"
	PathExperimental PathStatus = "experimental"
	PathDeprecated   PathStatus = "deprecated"
	PathRetired      PathStatus = "retired" // never recommended unless asked
)

// Valid reports whether the status is one of the closed set.
func (s PathStatus) Valid() bool {
	switch s {
	case PathActive, PathExperimental, PathDeprecated, PathRetired:
		return true
	}
	return false
}

// PathMetadata carries the learnable performance state of a reasoning path.
type PathMetadata struct {
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
	Version            string       `json:"version"`
	Author             string       `json:"author"`
	Category           PathCategory `json:"category"`
	Status             PathStatus   `json:"status"`
	UsageCount         int          `json:"usage_count"`
	SuccessRate        float64      `json:"success_rate"`   // successes / uses
	AverageRating      float64      `json:"average_rating"` // rolling mean of provided ratings
	RatingCount        int          `json:"rating_count"`
	TotalExecutionTime float64      `json:"total_execution_time"` // seconds
	Tags               []string     `json:"tags,omitempty"`
	Keywords           []string     `json:"keywords,omitempty"`
	ComplexityLevel    string       `json:"complexity_level,omitempty"`
}

// ReasoningPath is a persistent, learnable reasoning-path template.
// PromptTemplate carries {task} and {thinking_seed} slots.
type ReasoningPath struct {
	PathID             string       `json:"path_id"`
	PathType           string       `json:"path_type"`
	Description        string       `json:"description"`
	PromptTemplate     string       `json:"prompt_template"`
	StrategyID         string       `json:"strategy_id"`
	InstanceID         string       `json:"instance_id,omitempty"`
	Metadata           PathMetadata `json:"metadata"`
	IsLearned          bool         `json:"is_learned"`
	LearningSource     string       `json:"learning_source,omitempty"`
	EffectivenessScore float64      `json:"effectiveness_score"` // [0.1, 1.0]
	Confidence         float64      `json:"confidence,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate library cache entries.
func (p *ReasoningPath) Clone() *ReasoningPath {
	cp := *p
	cp.Metadata.Tags = append([]string(nil), p.Metadata.Tags...)
	cp.Metadata.Keywords = append([]string(nil), p.Metadata.Keywords...)
	return &cp
}

// =============================================================================
// DIMENSIONS
// =============================================================================

// Dimension is an alternative solution angle suggested by the LLM-driven
// dimension creator.
type Dimension struct {
	DimensionID     string          `json:"dimension_id"`
	Description     string          `json:"description"`
	CreativityLevel CreativityLevel `json:"creativity_level"`
	Mode            string          `json:"mode,omitempty"`
	Confidence      float64         `json:"confidence,omitempty"`
}

// PathContext carries optional task context for recommendation matching.
type PathContext struct {
	TaskType   string   `json:"task_type,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}
