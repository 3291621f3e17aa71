package recommender

import (
	"context"
	"time"

	"gigrecs/domain"
)

// ---- Repository interfaces ----

type EventRepository interface {
	// EligibleEvents returns future events, optionally filtered to an
	// exact city match. An empty city means no filter.
	EligibleEvents(ctx context.Context, city string) ([]domain.Event, error)

	// SaveCounts returns the number of "save" interactions per event id.
	SaveCounts(ctx context.Context) (map[string]int, error)
}

type TrainingDataRepository interface {
	Interactions(ctx context.Context) ([]domain.Interaction, error)
	Preferences(ctx context.Context) ([]domain.UserPreference, error)
	PreferencesFor(ctx context.Context, userID string) (*domain.UserPreference, error)
}

type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, event domain.FeedbackEvent) error
}

type ModelArtifactRepository interface {
	SaveArtifact(ctx context.Context, artifact domain.ModelArtifact) error
	// LatestArtifact returns (nil, nil) when no artifact has been saved.
	LatestArtifact(ctx context.Context) (*domain.ModelArtifact, error)
}

// clock is swapped in tests to pin "now" for the eligibility filter.
type clock func() time.Time
