package recommender

import (
	"math"
	"testing"
	"time"

	"gigrecs/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func futureEvent(id, genre, artist string, daysOut int) domain.Event {
	return domain.Event{
		ID:         id,
		Title:      "Event " + id,
		Genre:      genre,
		ArtistName: artist,
		City:       "Dublin",
		StartTime:  testNow.AddDate(0, 0, daysOut),
	}
}

func TestRankByPopularity_OrderBySaveCountThenStartTime(t *testing.T) {
	events := []domain.Event{
		futureEvent("A", "rock", "", 5),
		futureEvent("B", "pop", "", 1),
		futureEvent("C", "jazz", "", 3),
	}
	counts := map[string]int{"A": 5, "B": 0, "C": 2}

	recs := rankByPopularity(events, counts, testNow, 10)

	want := []string{"A", "C", "B"}
	if len(recs) != len(want) {
		t.Fatalf("got %d recs, want %d", len(recs), len(want))
	}
	for i, id := range want {
		if recs[i].EventID != id {
			t.Errorf("position %d: got %s, want %s", i, recs[i].EventID, id)
		}
		if recs[i].Algorithm != domain.AlgorithmPopularity {
			t.Errorf("algorithm = %s, want popularity", recs[i].Algorithm)
		}
	}
	if recs[0].Score != 5 {
		t.Errorf("top score = %v, want 5", recs[0].Score)
	}
}

func TestRankByPopularity_TieBrokenBySoonestStart(t *testing.T) {
	events := []domain.Event{
		futureEvent("later", "rock", "", 9),
		futureEvent("sooner", "rock", "", 2),
	}

	recs := rankByPopularity(events, map[string]int{}, testNow, 10)

	if recs[0].EventID != "sooner" {
		t.Errorf("tie should go to the soonest event, got %s first", recs[0].EventID)
	}
}

func TestRankByPopularity_DropsPastEvents(t *testing.T) {
	past := futureEvent("past", "rock", "", -1)
	events := []domain.Event{past, futureEvent("future", "rock", "", 1)}

	recs := rankByPopularity(events, map[string]int{"past": 99}, testNow, 10)

	if len(recs) != 1 || recs[0].EventID != "future" {
		t.Errorf("past events must never be recommended, got %v", recs)
	}
}

func TestRankByContent_Scores(t *testing.T) {
	events := []domain.Event{
		futureEvent("genre-hit", "techno", "DJ A", 3),
		futureEvent("artist-hit", "rock", "Fontaines D.C.", 2),
		futureEvent("neutral", "folk", "Nobody", 1),
	}
	prefs := &domain.UserPreference{
		UserID:           "u1",
		PreferredGenres:  []string{"Techno"},
		PreferredArtists: []string{"fontaines d.c."},
	}

	recs := rankByContent(events, prefs, testNow, 10)

	scores := map[string]float64{}
	for _, r := range recs {
		scores[r.EventID] = r.Score
		if r.Algorithm != domain.AlgorithmContentBased {
			t.Errorf("algorithm = %s, want content_based", r.Algorithm)
		}
	}

	if scores["genre-hit"] != 1.0 || scores["artist-hit"] != 0.8 || scores["neutral"] != 0.5 {
		t.Errorf("unexpected scores: %v", scores)
	}

	// every eligible event appears, unfiltered
	if len(recs) != 3 {
		t.Errorf("got %d recs, want all 3", len(recs))
	}

	if recs[0].EventID != "genre-hit" {
		t.Errorf("ranking should lead with the genre match, got %s", recs[0].EventID)
	}
}

func TestRankByContent_NilPreferencesAreNeutral(t *testing.T) {
	events := []domain.Event{futureEvent("e1", "rock", "X", 1)}

	recs := rankByContent(events, nil, testNow, 10)

	if len(recs) != 1 || recs[0].Score != contentNeutralScore {
		t.Errorf("expected neutral baseline without preferences, got %v", recs)
	}
}

// trainedSnapshot builds a snapshot from raw interactions for resolver tests.
func trainedSnapshot(t *testing.T, interactions []domain.Interaction) *Snapshot {
	t.Helper()

	m, userIdx, eventIdx, userIDs, eventIDs := BuildInteractionMatrix(interactions)
	return &Snapshot{
		Version:    "test",
		TrainedAt:  testNow,
		Matrix:     m,
		Similarity: CosineSimilarity(m),
		UserIdx:    userIdx,
		EventIdx:   eventIdx,
		UserIDs:    userIDs,
		EventIDs:   eventIDs,
	}
}

func cfFixture(t *testing.T) (*Snapshot, []domain.Event) {
	t.Helper()

	// alice and bob overlap on e1; bob also saved e2; carol is off on her own
	interactions := []domain.Interaction{
		{UserID: "alice", EventID: "e1", Score: 1.0},
		{UserID: "bob", EventID: "e1", Score: 1.0},
		{UserID: "bob", EventID: "e2", Score: 1.0},
		{UserID: "carol", EventID: "e3", Score: 1.0},
	}

	events := []domain.Event{
		futureEvent("e1", "rock", "A", 1),
		futureEvent("e2", "rock", "B", 2),
		futureEvent("e3", "jazz", "C", 3),
	}

	return trainedSnapshot(t, interactions), events
}

func TestRankByCollaborative_ColdStart(t *testing.T) {
	snap, events := cfFixture(t)

	if _, ok := rankByCollaborative(snap, "stranger", events, testNow, 10); ok {
		t.Error("unknown user must report cold start")
	}
}

func TestRankByCollaborative_NeverReturnsInteractedEvents(t *testing.T) {
	snap, events := cfFixture(t)

	recs, ok := rankByCollaborative(snap, "alice", events, testNow, 10)
	if !ok {
		t.Fatal("alice is in the snapshot, no cold start expected")
	}

	for _, r := range recs {
		if r.EventID == "e1" {
			t.Error("e1 was already interacted with and must not be returned")
		}
	}

	// bob's e2 should surface through the similarity weighting
	found := false
	for _, r := range recs {
		if r.EventID == "e2" {
			found = true
			if r.Score <= 0 {
				t.Errorf("e2 score = %v, want strictly positive", r.Score)
			}
			if r.Algorithm != domain.AlgorithmCollaborative {
				t.Errorf("algorithm = %s, want collaborative_filtering", r.Algorithm)
			}
		}
	}
	if !found {
		t.Error("expected e2 recommended from similar user bob")
	}
}

func TestRankByCollaborative_KeepsStrictlyPositiveOnly(t *testing.T) {
	// dave's only neighbor signal on e2 is a hide, so its weighted score
	// is negative and nothing should come back
	interactions := []domain.Interaction{
		{UserID: "dave", EventID: "e1", Score: 1.0},
		{UserID: "erin", EventID: "e1", Score: 1.0},
		{UserID: "erin", EventID: "e2", Score: -0.5},
	}
	events := []domain.Event{
		futureEvent("e1", "rock", "A", 1),
		futureEvent("e2", "rock", "B", 2),
	}

	snap := trainedSnapshot(t, interactions)

	recs, ok := rankByCollaborative(snap, "dave", events, testNow, 10)
	if !ok {
		t.Fatal("unexpected cold start")
	}
	if len(recs) != 0 {
		t.Errorf("negative-scored candidates must be dropped, got %v", recs)
	}
}

func TestMergeHybrid_BlendArithmetic(t *testing.T) {
	cf := []domain.ScoredEvent{
		{EventID: "both", Score: 2.0, Algorithm: domain.AlgorithmCollaborative},
		{EventID: "cf-only", Score: 1.0, Algorithm: domain.AlgorithmCollaborative},
	}
	cb := []domain.ScoredEvent{
		{EventID: "both", Score: 1.0, Algorithm: domain.AlgorithmContentBased},
		{EventID: "cb-only", Score: 0.5, Algorithm: domain.AlgorithmContentBased},
	}

	recs := mergeHybrid(cf, cb, 10)

	scores := map[string]float64{}
	for _, r := range recs {
		scores[r.EventID] = r.Score
		if r.Algorithm != domain.AlgorithmHybrid {
			t.Errorf("algorithm = %s, want hybrid", r.Algorithm)
		}
	}

	if got, want := scores["both"], 0.6*2.0+0.4*1.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("blended score = %v, want %v", got, want)
	}
	if got, want := scores["cf-only"], 0.6*1.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("cf-only score = %v, want %v", got, want)
	}
	if got, want := scores["cb-only"], 0.4*0.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("cb-only score = %v, want %v", got, want)
	}

	if recs[0].EventID != "both" {
		t.Errorf("highest combined score should rank first, got %s", recs[0].EventID)
	}
}

func TestMergeHybrid_Truncates(t *testing.T) {
	cf := []domain.ScoredEvent{
		{EventID: "a", Score: 3},
		{EventID: "b", Score: 2},
		{EventID: "c", Score: 1},
	}

	recs := mergeHybrid(cf, nil, 2)

	if len(recs) != 2 {
		t.Errorf("got %d recs, want 2", len(recs))
	}
}
