package recommender

import (
	"encoding/json"
	"fmt"
	"time"

	"gigrecs/domain"
)

// Snapshot is one immutable trained model bundle. A snapshot is built on
// a private working copy and published with a single pointer swap; its
// contents are never mutated after publication, so concurrent readers
// need no locking.
type Snapshot struct {
	Version    string                   `json:"version"`
	TrainedAt  time.Time                `json:"trained_at"`
	Matrix     *InteractionMatrix       `json:"interaction_matrix"`
	Similarity [][]float64              `json:"user_similarity"`
	UserIdx    map[string]int           `json:"user_idx"`
	EventIdx   map[string]int           `json:"event_idx"`
	UserIDs    []string                 `json:"user_ids"`
	EventIDs   []string                 `json:"event_ids"`
	Metrics    domain.ValidationMetrics `json:"validation_metrics"`
}

// Encode serializes the snapshot for the model artifact store.
func (s *Snapshot) Encode() ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return raw, nil
}

func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s.Matrix == nil {
		return nil, fmt.Errorf("snapshot has no interaction matrix")
	}
	return &s, nil
}
