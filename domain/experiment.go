package domain

import "time"

const (
	ExperimentStatusActive   = "active"
	ExperimentStatusInactive = "inactive"
)

type Variant struct {
	VariantID   string  `json:"variant_id"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

type Experiment struct {
	ExperimentID string    `json:"experiment_id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Variants     []Variant `json:"variants"`
	CreatedAt    time.Time `json:"created_at"`
}

// Assignment is the immutable (user, experiment) -> variant record.
// Conversions is a counter, not a flag.
type Assignment struct {
	UserID         string     `json:"user_id"`
	ExperimentID   string     `json:"experiment_id"`
	VariantID      string     `json:"variant_id"`
	AssignedAt     time.Time  `json:"assigned_at"`
	Conversions    int        `json:"conversions"`
	LastConversion *time.Time `json:"last_conversion,omitempty"`

	// Persisted is false when the assignment store rejected the write and
	// the assignment is effectively ephemeral for this call.
	Persisted bool `json:"-"`
}

type VariantResult struct {
	Variant        string  `json:"variant"`
	Users          int     `json:"users"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

type ExperimentResults struct {
	ExperimentID string          `json:"experiment_id"`
	Status       string          `json:"status"`
	Variants     []VariantResult `json:"variants"`
	TotalUsers   int             `json:"total_users"`
}
