package explorer

import (
	"fmt"
	"hash/fnv"
	"strings"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// =============================================================================
// STAGE 2 - EVALUATE
// =============================================================================
// Each raw item is scored on confidence (source credibility), relevance
// (content length banding) and novelty (Jaccard similarity against the recent
// knowledge cache), then filtered against the configured thresholds.

// sourceCredibility maps source types to confidence scores.
var sourceCredibility = map[string]float64{
	"academic_paper": 0.9,
	"expert_system":  0.8,
	"database":       0.7,
	"web_search":     0.6,
	"api_call":       0.6,
}

const unknownSourceCredibility = 0.3

// noveltyWindow is how many recent cache entries novelty is checked against.
const noveltyWindow = 10

// evaluate runs Stage 2 over the collected items.
func (e *Explorer) evaluate(raw []rawItem) []types.KnowledgeItem {
	recent := e.recentKnowledge(noveltyWindow)

	var kept []types.KnowledgeItem
	dropped := 0
	for i := range raw {
		item, ok := e.evaluateOne(&raw[i], recent)
		if !ok {
			dropped++
			continue
		}
		kept = append(kept, item)
		// Novelty for later items in the same batch accounts for what the
		// batch has already accepted.
		recent = append(recent, item)
		if len(recent) > noveltyWindow {
			recent = recent[len(recent)-noveltyWindow:]
		}
	}
	if dropped > 0 {
		logging.ExploreDebug("evaluate: dropped %d of %d items", dropped, len(raw))
	}
	return kept
}

func (e *Explorer) evaluateOne(item *rawItem, recent []types.KnowledgeItem) (types.KnowledgeItem, bool) {
	content := strings.TrimSpace(item.Content)
	if len(content) < 10 {
		return types.KnowledgeItem{}, false
	}

	confidence, ok := sourceCredibility[item.SourceType]
	if !ok {
		confidence = unknownSourceCredibility
	}
	relevance := relevanceScore(content)
	novelty := noveltyScore(content, recent)

	k := types.KnowledgeItem{
		KnowledgeID:  knowledgeID(content, item),
		Content:      content,
		Source:       item.URL,
		SourceType:   item.SourceType,
		Confidence:   confidence,
		Relevance:    relevance,
		Novelty:      novelty,
		Tags:         contentTags(content),
		DiscoveredAt: item.CollectedAt,
	}
	k.Quality = types.QualityFromScore(k.OverallScore())

	switch {
	case k.Quality == types.QualityUnreliable:
		return types.KnowledgeItem{}, false
	case confidence < e.minConfidence():
		return types.KnowledgeItem{}, false
	case relevance < e.minRelevance():
		return types.KnowledgeItem{}, false
	}
	return k, true
}

func (e *Explorer) minConfidence() float64 {
	if e.cfg.MinConfidenceThreshold > 0 {
		return e.cfg.MinConfidenceThreshold
	}
	return 0.4
}

func (e *Explorer) minRelevance() float64 {
	if e.cfg.MinRelevanceThreshold > 0 {
		return e.cfg.MinRelevanceThreshold
	}
	return 0.3
}

// relevanceScore bands content by length: longer snippets carry more usable
// signal, up to a ceiling.
func relevanceScore(content string) float64 {
	switch n := len(content); {
	case n < 50:
		return 0.3
	case n < 200:
		return 0.5
	case n < 500:
		return 0.7
	default:
		return 0.8
	}
}

// noveltyScore compares the content's word set against recent knowledge.
// Near-duplicates (Jaccard > 0.8) score 0.2, everything else 0.6.
func noveltyScore(content string, recent []types.KnowledgeItem) float64 {
	words := wordSet(content)
	for i := range recent {
		if jaccard(words, wordSet(recent[i].Content)) > 0.8 {
			return 0.2
		}
	}
	return 0.6
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, ".,;:!?\"'()")] = true
	}
	delete(set, "")
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// contentTags picks the first few distinctive words as tags.
func contentTags(content string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(content)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) <= 4 || seen[w] {
			continue
		}
		seen[w] = true
		tags = append(tags, w)
		if len(tags) >= 5 {
			break
		}
	}
	return tags
}

// knowledgeID derives a stable ID from the content hash and collection time.
func knowledgeID(content string, item *rawItem) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fmt.Sprintf("knowledge_%08x_%d", h.Sum32(), item.CollectedAt.Unix())
}

// recentKnowledge returns up to n most recent cached items.
func (e *Explorer) recentKnowledge(n int) []types.KnowledgeItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.knowledgeCache) <= n {
		out := make([]types.KnowledgeItem, len(e.knowledgeCache))
		copy(out, e.knowledgeCache)
		return out
	}
	out := make([]types.KnowledgeItem, n)
	copy(out, e.knowledgeCache[len(e.knowledgeCache)-n:])
	return out
}
