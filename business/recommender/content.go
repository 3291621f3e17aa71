package recommender

import (
	"sort"
	"strings"
	"time"

	"gigrecs/domain"
)

// Content-based scores: genre match beats artist match beats the neutral
// baseline. Every eligible event keeps a score, so nothing is filtered
// out by taste alone.
const (
	contentGenreScore   = 1.0
	contentArtistScore  = 0.8
	contentNeutralScore = 0.5
)

func rankByContent(events []domain.Event, prefs *domain.UserPreference, now time.Time, limit int) []domain.ScoredEvent {
	eligible := filterEligible(events, now)

	var genres, artists map[string]struct{}
	if prefs != nil {
		genres = lowerSet(prefs.PreferredGenres)
		artists = lowerSet(prefs.PreferredArtists)
	}

	out := make([]domain.ScoredEvent, 0, len(eligible))
	for _, ev := range eligible {
		score := contentNeutralScore
		if _, ok := genres[strings.ToLower(ev.Genre)]; ok {
			score = contentGenreScore
		} else if _, ok := artists[strings.ToLower(ev.ArtistName)]; ok {
			score = contentArtistScore
		}

		out = append(out, scoredEvent(ev, score, domain.AlgorithmContentBased))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
