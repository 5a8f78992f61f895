package pathlib

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// learnedPromptTemplate is the fixed template applied to every learned path.
// The {task} and {thinking_seed} slots are filled at execution time.
const learnedPromptTemplate = "Apply the following thinking seed to the task.\n" +
	"Task: {task}\n" +
	"Thinking seed: {thinking_seed}\n" +
	"Work through the seed's angle step by step and produce a concrete answer."

// Hash8 returns an 8-hex-char FNV-1a digest of the content, used for
// content-derived IDs.
func Hash8(content string) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fmt.Sprintf("%08x", h.Sum32())
}

// LearnFromExploration creates new experimental paths from the seeds of an
// exploration result. One path per seed with non-empty content; a seed whose
// derived path_id already exists is skipped silently. Returns the IDs of the
// newly created paths.
func (l *Library) LearnFromExploration(result *types.ExplorationResult, source string) ([]string, error) {
	if result == nil {
		return nil, nil
	}

	var created []string
	var batch []*types.ReasoningPath
	now := time.Now()

	l.mu.Lock()
	for i := range result.GeneratedSeeds {
		seed := &result.GeneratedSeeds[i]
		if seed.Content == "" {
			continue
		}

		pathID := "learned_" + Hash8(seed.Content)
		if _, exists := l.cache[pathID]; exists {
			continue
		}

		category := seedCategory(seed)
		p := &types.ReasoningPath{
			PathID:         pathID,
			PathType:       string(category),
			Description:    seed.Content,
			PromptTemplate: learnedPromptTemplate,
			StrategyID:     pathID,
			InstanceID:     uuid.NewString(),
			Metadata: types.PathMetadata{
				CreatedAt: now,
				UpdatedAt: now,
				Version:   "1.0",
				Author:    "mindloop",
				Category:  category,
				Status:    types.PathExperimental,
				Keywords:  append([]string(nil), seed.SuggestedPaths...),
			},
			IsLearned:          true,
			LearningSource:     source,
			EffectivenessScore: 0.5,
			Confidence:         seed.Confidence,
		}
		l.cache[pathID] = p
		batch = append(batch, p)
		created = append(created, pathID)
	}

	var err error
	if len(batch) > 0 {
		err = l.backend.SaveAll(batch)
	}
	l.mu.Unlock()

	if err != nil {
		logging.Get(logging.CategoryPathLib).Error("learn: persist failed: %v", err)
		return created, fmt.Errorf("pathlib: persist failed: %w", err)
	}
	logging.PathLib("learned %d new paths from exploration %s", len(created), result.ExplorationID)
	return created, nil
}

// seedCategory maps seed properties to a path category: high creativity is
// creative, cross-domain connections make it adaptive, everything else is
// analytical.
func seedCategory(seed *types.ThinkingSeed) types.PathCategory {
	switch {
	case seed.CreativityLevel == types.CreativityHigh:
		return types.CategoryCreative
	case len(seed.CrossDomainConnections) > 0:
		return types.CategoryAdaptive
	default:
		return types.CategoryAnalytical
	}
}
