package recommender

import (
	"sort"
	"time"

	"gigrecs/domain"
)

// rankByPopularity is the control arm and the universal fallback: save
// count descending, ties broken by soonest start time.
func rankByPopularity(events []domain.Event, saveCounts map[string]int, now time.Time, limit int) []domain.ScoredEvent {
	eligible := filterEligible(events, now)

	sort.SliceStable(eligible, func(i, j int) bool {
		ci := saveCounts[eligible[i].ID]
		cj := saveCounts[eligible[j].ID]
		if ci != cj {
			return ci > cj
		}
		return eligible[i].StartTime.Before(eligible[j].StartTime)
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]domain.ScoredEvent, 0, len(eligible))
	for _, ev := range eligible {
		out = append(out, scoredEvent(ev, float64(saveCounts[ev.ID]), domain.AlgorithmPopularity))
	}

	return out
}

// filterEligible drops events that have already started. The repository
// applies the same filter at fetch time; this keeps the contract local.
func filterEligible(events []domain.Event, now time.Time) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if ev.StartTime.Before(now) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func scoredEvent(ev domain.Event, score float64, algorithm string) domain.ScoredEvent {
	return domain.ScoredEvent{
		EventID:    ev.ID,
		Title:      ev.Title,
		ArtistName: ev.ArtistName,
		Genre:      ev.Genre,
		City:       ev.City,
		StartTime:  ev.StartTime,
		Price:      ev.Price,
		VenueName:  ev.VenueName,
		Score:      score,
		Algorithm:  algorithm,
	}
}
