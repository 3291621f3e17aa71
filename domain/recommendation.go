package domain

import "time"

// Algorithm tags carried on every scored event. They double as the
// experiment variant ids for the recommendation-strategy experiment.
const (
	AlgorithmPopularity    = "popularity"
	AlgorithmCollaborative = "collaborative_filtering"
	AlgorithmContentBased  = "content_based"
	AlgorithmHybrid        = "hybrid"
)

type ScoredEvent struct {
	EventID        string    `json:"event_id"`
	Title          string    `json:"title"`
	ArtistName     string    `json:"artist_name"`
	Genre          string    `json:"genre"`
	City           string    `json:"city"`
	StartTime      time.Time `json:"start_time"`
	Price          float64   `json:"price"`
	VenueName      string    `json:"venue_name"`
	Score          float64   `json:"score"`
	Algorithm      string    `json:"algorithm"`
	ContextReasons []string  `json:"context_reasons,omitempty"`
}

type ValidationMetrics struct {
	CoveragePercent   float64 `json:"coverage_percent"`
	AvgUserSimilarity float64 `json:"avg_user_similarity"`
	NumUsers          int     `json:"num_users"`
	NumEvents         int     `json:"num_events"`
}

type ModelInfo struct {
	Version           string            `json:"version"`
	TrainedAt         *time.Time        `json:"trained_at,omitempty"`
	Loaded            bool              `json:"loaded"`
	TrainingSamples   int               `json:"training_samples"`
	ValidationMetrics ValidationMetrics `json:"validation_metrics"`
}

type RetrainResult struct {
	Version           string            `json:"version"`
	TrainedAt         time.Time         `json:"trained_at"`
	TrainingSamples   int               `json:"training_samples"`
	ValidationMetrics ValidationMetrics `json:"validation_metrics"`
}

// ModelArtifact is one persisted snapshot blob. The payload is opaque to
// the store; the recommender owns its encoding.
type ModelArtifact struct {
	Version   string    `gorm:"column:version;primaryKey" json:"version"`
	TrainedAt time.Time `gorm:"column:trained_at;not null;index" json:"trained_at"`
	Payload   []byte    `gorm:"column:payload;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ModelArtifact) TableName() string {
	return "model_artifacts"
}
