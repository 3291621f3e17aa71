package recommender

import (
	"math"
	"sort"
	"time"

	"gigrecs/domain"
)

// neighborhood size for user-based collaborative filtering
const topSimilarUsers = 10

// rankByCollaborative scores events by the similarity-weighted
// interactions of the user's nearest neighbors. The second return value
// is false on cold start (user absent from the snapshot index), in which
// case the caller routes to popularity.
func rankByCollaborative(snap *Snapshot, userID string, events []domain.Event, now time.Time, limit int) ([]domain.ScoredEvent, bool) {
	userIdx, ok := snap.UserIdx[userID]
	if !ok {
		return nil, false
	}

	simRow := snap.Similarity[userIdx]

	type neighbor struct {
		idx int
		sim float64
	}

	neighbors := make([]neighbor, 0, len(simRow)-1)
	for i, s := range simRow {
		if i == userIdx {
			continue
		}
		neighbors = append(neighbors, neighbor{idx: i, sim: s})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].sim > neighbors[j].sim
	})
	if len(neighbors) > topSimilarUsers {
		neighbors = neighbors[:topSimilarUsers]
	}

	scores := make([]float64, snap.Matrix.NumEvents)
	for _, nb := range neighbors {
		if nb.sim == 0 {
			continue
		}
		for col, v := range snap.Matrix.Row(nb.idx) {
			scores[col] += nb.sim * v
		}
	}

	// never recommend anything the user already interacted with
	for col, v := range snap.Matrix.Row(userIdx) {
		if v != 0 {
			scores[col] = math.Inf(-1)
		}
	}

	eligible := make(map[string]domain.Event, len(events))
	for _, ev := range filterEligible(events, now) {
		eligible[ev.ID] = ev
	}

	type candidate struct {
		col   int
		score float64
	}

	candidates := make([]candidate, 0, len(scores))
	for col, score := range scores {
		if score <= 0 || math.IsInf(score, -1) {
			continue
		}
		if _, ok := eligible[snap.EventIDs[col]]; !ok {
			continue
		}
		candidates = append(candidates, candidate{col: col, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]domain.ScoredEvent, 0, len(candidates))
	for _, c := range candidates {
		ev := eligible[snap.EventIDs[c.col]]
		out = append(out, scoredEvent(ev, c.score, domain.AlgorithmCollaborative))
	}

	return out, true
}
