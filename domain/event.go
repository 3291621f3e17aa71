package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID         string    `gorm:"primaryKey;column:id" json:"id"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	City       string    `gorm:"column:city" json:"city"`
	StartTime  time.Time `gorm:"column:start_time;not null;index" json:"start_time"`
	Price      float64   `gorm:"column:price" json:"price"`
	Genre      string    `gorm:"column:genre" json:"genre"`
	VenueName  string    `gorm:"column:venue_name" json:"venue_name"`
	ArtistName string    `gorm:"column:artist_name" json:"artist_name"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

const (
	InteractionSave = "save"
	InteractionHide = "hide"
)

// Interaction scores used when building the training matrix.
const (
	SaveScore = 1.0
	HideScore = -0.5
)

type Interaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	EventID   string    `gorm:"column:event_id;not null;index" json:"event_id"`
	Score     float64   `gorm:"column:score;not null" json:"score"`
	Kind      string    `gorm:"column:kind;not null" json:"kind"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

type UserPreference struct {
	UserID           string                      `gorm:"column:user_id;primaryKey" json:"user_id"`
	PreferredGenres  datatypes.JSONSlice[string] `gorm:"column:preferred_genres" json:"preferred_genres"`
	PreferredArtists datatypes.JSONSlice[string] `gorm:"column:preferred_artists" json:"preferred_artists"`
	PreferredCities  datatypes.JSONSlice[string] `gorm:"column:preferred_cities" json:"preferred_cities"`
	BudgetMax        float64                     `gorm:"column:budget_max" json:"budget_max"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// FeedbackEvent is one append-only row in the feedback sink, consumed by
// the next retraining cycle.
type FeedbackEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"column:user_id;not null;index" json:"user_id"`
	EventID   string            `gorm:"column:event_id;not null" json:"event_id"`
	Action    string            `gorm:"column:action;not null" json:"action"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (FeedbackEvent) TableName() string {
	return "ml_feedback"
}
