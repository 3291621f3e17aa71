package recommender

import (
	"sort"

	"gigrecs/domain"
)

// Hybrid blend weights: collaborative dominates, content fills in.
const (
	hybridCollaborativeWeight = 0.6
	hybridContentWeight       = 0.4
)

// mergeHybrid rescales both sub-lists and sums contributions for events
// present in both, then re-ranks the union.
func mergeHybrid(cf, cb []domain.ScoredEvent, limit int) []domain.ScoredEvent {
	merged := make(map[string]domain.ScoredEvent, len(cf)+len(cb))

	for _, rec := range cf {
		rec.Score *= hybridCollaborativeWeight
		rec.Algorithm = domain.AlgorithmHybrid
		merged[rec.EventID] = rec
	}

	for _, rec := range cb {
		if existing, ok := merged[rec.EventID]; ok {
			existing.Score += rec.Score * hybridContentWeight
			merged[rec.EventID] = existing
			continue
		}
		rec.Score *= hybridContentWeight
		rec.Algorithm = domain.AlgorithmHybrid
		merged[rec.EventID] = rec
	}

	out := make([]domain.ScoredEvent, 0, len(merged))
	for _, rec := range merged {
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].EventID < out[j].EventID
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}
