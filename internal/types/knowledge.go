package types

import "time"

// =============================================================================
// EXPLORATION STRATEGIES
// =============================================================================

// ExplorationStrategy selects how the knowledge explorer frames its queries.
type ExplorationStrategy string

const (
	StrategyDomainExpansion         ExplorationStrategy = "domain_expansion"
	StrategyTrendMonitoring         ExplorationStrategy = "trend_monitoring"
	StrategyGapAnalysis             ExplorationStrategy = "gap_analysis"
	StrategyCrossDomainLearning     ExplorationStrategy = "cross_domain_learning"
	StrategySerendipityDiscovery    ExplorationStrategy = "serendipity_discovery"
	StrategyExpertKnowledge         ExplorationStrategy = "expert_knowledge"
	StrategyCompetitiveIntelligence ExplorationStrategy = "competitive_intelligence"
)

// AllExplorationStrategies lists the closed strategy set.
var AllExplorationStrategies = []ExplorationStrategy{
	StrategyDomainExpansion,
	StrategyTrendMonitoring,
	StrategyGapAnalysis,
	StrategyCrossDomainLearning,
	StrategySerendipityDiscovery,
	StrategyExpertKnowledge,
	StrategyCompetitiveIntelligence,
}

// Valid reports whether the strategy is one of the closed set.
func (s ExplorationStrategy) Valid() bool {
	for _, known := range AllExplorationStrategies {
		if s == known {
			return true
		}
	}
	return false
}

func (s ExplorationStrategy) String() string { return string(s) }

// ExplorationMode distinguishes the dual exploration tracks.
type ExplorationMode string

const (
	ModeUserDirected ExplorationMode = "user_directed"
	ModeAutonomous   ExplorationMode = "autonomous"
)

// =============================================================================
// EXPLORATION TARGETS
// =============================================================================

// TargetType categorizes what an exploration target is about.
type TargetType string

const (
	TargetConcept     TargetType = "concept"
	TargetTrend       TargetType = "trend"
	TargetMethodology TargetType = "methodology"
	TargetTechnology  TargetType = "technology"
	TargetDomain      TargetType = "domain"
)

// ExplorationTarget is one subject the explorer investigates.
type ExplorationTarget struct {
	TargetID    string                 `json:"target_id"`
	Type        TargetType             `json:"type"`
	Description string                 `json:"description"`
	Keywords    []string               `json:"keywords,omitempty"`
	Priority    float64                `json:"priority"` // 0..1
	Depth       int                    `json:"depth"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Mode returns the exploration mode recorded in target metadata,
// defaulting to autonomous.
func (t *ExplorationTarget) Mode() ExplorationMode {
	if t.Metadata != nil {
		if m, ok := t.Metadata["exploration_mode"].(string); ok && m == string(ModeUserDirected) {
			return ModeUserDirected
		}
	}
	return ModeAutonomous
}

// UserQuery returns the original user query for user-directed targets.
func (t *ExplorationTarget) UserQuery() string {
	if t.Metadata != nil {
		if q, ok := t.Metadata["user_query"].(string); ok {
			return q
		}
	}
	return ""
}

// =============================================================================
// KNOWLEDGE ITEMS
// =============================================================================

// QualityBand buckets knowledge items by overall evaluation score.
type QualityBand string

const (
	QualityExcellent  QualityBand = "excellent"  // overall >= 0.8
	QualityGood       QualityBand = "good"       // overall >= 0.6
	QualityFair       QualityBand = "fair"       // overall >= 0.4
	QualityPoor       QualityBand = "poor"       // overall >= 0.2
	QualityUnreliable QualityBand = "unreliable" // everything below
)

// QualityFromScore maps an overall evaluation score to its band.
func QualityFromScore(overall float64) QualityBand {
	switch {
	case overall >= 0.8:
		return QualityExcellent
	case overall >= 0.6:
		return QualityGood
	case overall >= 0.4:
		return QualityFair
	case overall >= 0.2:
		return QualityPoor
	default:
		return QualityUnreliable
	}
}

// KnowledgeItem is one evaluated piece of discovered knowledge.
// Immutable after evaluation.
type KnowledgeItem struct {
	KnowledgeID     string      `json:"knowledge_id"` // content-hash derived
	Content         string      `json:"content"`
	Source          string      `json:"source"`
	SourceType      string      `json:"source_type"`
	Quality         QualityBand `json:"quality"`
	Confidence      float64     `json:"confidence"` // [0,1]
	Relevance       float64     `json:"relevance"`  // [0,1]
	Novelty         float64     `json:"novelty"`    // [0,1]
	Tags            []string    `json:"tags,omitempty"`
	RelatedConcepts []string    `json:"related_concepts,omitempty"`
	DiscoveredAt    time.Time   `json:"discovered_at"`
}

// OverallScore is the weighted evaluation score used for quality banding.
func (k *KnowledgeItem) OverallScore() float64 {
	return 0.4*k.Confidence + 0.4*k.Relevance + 0.2*k.Novelty
}

// MeanScore is the unweighted mean of the three component scores, used for
// seed ranking.
func (k *KnowledgeItem) MeanScore() float64 {
	return (k.Confidence + k.Relevance + k.Novelty) / 3.0
}

// =============================================================================
// THINKING SEEDS
// =============================================================================

// CreativityLevel grades how far a seed or dimension departs from convention.
type CreativityLevel string

const (
	CreativityLow    CreativityLevel = "low"
	CreativityMedium CreativityLevel = "medium"
	CreativityHigh   CreativityLevel = "high"
)

// ThinkingSeed is a short textual prompt derived from discovered knowledge,
// used to nucleate new reasoning paths. Every seed references at least one
// existing knowledge item from the same or a prior exploration.
type ThinkingSeed struct {
	SeedID                 string                 `json:"seed_id"`
	Content                string                 `json:"content"`
	SourceKnowledge        []string               `json:"source_knowledge"` // knowledge IDs
	CreativityLevel        CreativityLevel        `json:"creativity_level"`
	Confidence             float64                `json:"confidence"` // [0,1]
	SuggestedPaths         []string               `json:"suggested_paths,omitempty"`
	CrossDomainConnections []string               `json:"cross_domain_connections,omitempty"`
	GenerationContext      map[string]interface{} `json:"generation_context,omitempty"`
}

// RelatedTargets returns the target IDs recorded in the generation context.
func (s *ThinkingSeed) RelatedTargets() []string {
	if s.GenerationContext == nil {
		return nil
	}
	switch v := s.GenerationContext["related_targets"].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if id, ok := item.(string); ok {
				out = append(out, id)
			}
		}
		return out
	}
	return nil
}

// =============================================================================
// TRENDS AND CROSS-DOMAIN INSIGHTS
// =============================================================================

// Trend is a recurring theme detected across discovered knowledge.
type Trend struct {
	TrendID             string   `json:"trend_id"`
	Keyword             string   `json:"keyword"`
	Frequency           int      `json:"frequency"`
	Confidence          float64  `json:"confidence"`
	SupportingKnowledge []string `json:"supporting_knowledge"` // knowledge IDs
}

// CrossDomainInsight links a seed's cross-domain connections into an
// actionable observation.
type CrossDomainInsight struct {
	InsightID   string   `json:"insight_id"`
	Type        string   `json:"type"` // cross_domain_connection
	Description string   `json:"description"`
	SourceSeed  string   `json:"source_seed"`
	Connections []string `json:"connections"`
	Confidence  float64  `json:"confidence"`
}

// =============================================================================
// EXPLORATION RESULTS
// =============================================================================

// ExplorationResult is the output of one full exploration pipeline run.
type ExplorationResult struct {
	ExplorationID       string               `json:"exploration_id"`
	Strategy            ExplorationStrategy  `json:"strategy"`
	Targets             []ExplorationTarget  `json:"targets"`
	DiscoveredKnowledge []KnowledgeItem      `json:"discovered_knowledge"`
	GeneratedSeeds      []ThinkingSeed       `json:"generated_seeds"`
	IdentifiedTrends    []Trend              `json:"identified_trends"`
	CrossDomainInsights []CrossDomainInsight `json:"cross_domain_insights"`
	ExecutionTime       time.Duration        `json:"execution_time"`
	SuccessRate         float64              `json:"success_rate"`  // producing targets / all targets
	QualityScore        float64              `json:"quality_score"` // mean overall score
	Status              ResultStatus         `json:"status"`
	Error               string               `json:"error,omitempty"`
}

// ResultStatus discriminates one-shot operation outcomes.
type ResultStatus string

const (
	StatusSuccess         ResultStatus = "success"
	StatusNoSuitableTasks ResultStatus = "no_suitable_tasks"
	StatusError           ResultStatus = "error"
)
