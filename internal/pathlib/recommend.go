package pathlib

import (
	"sort"

	"mindloop/internal/types"
)

// DefaultMinEffectiveness is the recommendation floor when the caller does
// not specify one.
const DefaultMinEffectiveness = 0.3

// Recommend returns up to max active paths with effectiveness >= minEff,
// ranked by recommendation score. ctx is optional; when present it scales
// the base score by context match. Ties break on higher effectiveness, then
// lower path_id.
func (l *Library) Recommend(ctx *types.PathContext, max int, minEff float64) []*types.ReasoningPath {
	if max <= 0 {
		return nil
	}
	if minEff <= 0 {
		minEff = DefaultMinEffectiveness
	}

	l.mu.Lock()
	candidates := make([]*types.ReasoningPath, 0, len(l.cache))
	for _, p := range l.cache {
		if p.Metadata.Status != types.PathActive {
			continue
		}
		if p.EffectivenessScore < minEff {
			continue
		}
		candidates = append(candidates, p.Clone())
	}
	l.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		si := recommendationScore(candidates[i], ctx)
		sj := recommendationScore(candidates[j], ctx)
		if si != sj {
			return si > sj
		}
		if candidates[i].EffectivenessScore != candidates[j].EffectivenessScore {
			return candidates[i].EffectivenessScore > candidates[j].EffectivenessScore
		}
		return candidates[i].PathID < candidates[j].PathID
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}

// recommendationScore computes
//
//	base = 0.40*effectiveness + 0.30*success_rate
//	     + 0.15*min(1, usage/100) + 0.15*average_rating
//	if ctx: base *= (1 + contextMatch)
func recommendationScore(p *types.ReasoningPath, ctx *types.PathContext) float64 {
	usage := float64(p.Metadata.UsageCount) / 100.0
	if usage > 1.0 {
		usage = 1.0
	}
	base := 0.40*p.EffectivenessScore +
		0.30*p.Metadata.SuccessRate +
		0.15*usage +
		0.15*p.Metadata.AverageRating

	if ctx != nil {
		base *= 1 + contextMatch(p, ctx)
	}
	return base
}

// contextMatch sums: +0.2 when the task type appears in the path keywords,
// +0.1 on complexity match, plus tag overlap ratio scaled by 0.3.
func contextMatch(p *types.ReasoningPath, ctx *types.PathContext) float64 {
	score := 0.0

	if ctx.TaskType != "" {
		for _, kw := range p.Metadata.Keywords {
			if kw == ctx.TaskType {
				score += 0.2
				break
			}
		}
	}

	if ctx.Complexity != "" && ctx.Complexity == p.Metadata.ComplexityLevel {
		score += 0.1
	}

	if len(ctx.Tags) > 0 {
		pathTags := make(map[string]bool, len(p.Metadata.Tags))
		for _, t := range p.Metadata.Tags {
			pathTags[t] = true
		}
		overlap := 0
		for _, t := range ctx.Tags {
			if pathTags[t] {
				overlap++
			}
		}
		score += float64(overlap) / float64(len(ctx.Tags)) * 0.3
	}

	return score
}
