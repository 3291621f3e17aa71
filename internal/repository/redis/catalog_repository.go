package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gigrecs/domain"

	"github.com/redis/go-redis/v9"
)

// CatalogRepository stores experiment definitions as JSON documents with
// a member set as the listing index.
type CatalogRepository struct {
	client *redis.Client
}

func NewCatalogRepository(client *redis.Client) *CatalogRepository {
	return &CatalogRepository{client: client}
}

func experimentKey(experimentID string) string {
	return fmt.Sprintf("experiment:%s", experimentID)
}

const experimentIndexKey = "experiment:ids"

func (r *CatalogRepository) Get(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	raw, err := r.client.Get(ctx, experimentKey(experimentID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment: %w", err)
	}

	var exp domain.Experiment
	if err := json.Unmarshal([]byte(raw), &exp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal experiment %s: %w", experimentID, err)
	}

	return &exp, nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]domain.Experiment, error) {
	ids, err := r.client.SMembers(ctx, experimentIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list experiment index: %w", err)
	}

	out := make([]domain.Experiment, 0, len(ids))
	for _, id := range ids {
		exp, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if exp == nil || exp.Status != domain.ExperimentStatusActive {
			continue
		}
		out = append(out, *exp)
	}

	return out, nil
}

func (r *CatalogRepository) Seed(ctx context.Context, exp domain.Experiment) error {
	raw, err := json.Marshal(exp)
	if err != nil {
		return fmt.Errorf("failed to marshal experiment: %w", err)
	}

	created, err := r.client.SetNX(ctx, experimentKey(exp.ExperimentID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to seed experiment: %w", err)
	}

	if created {
		if err := r.client.SAdd(ctx, experimentIndexKey, exp.ExperimentID).Err(); err != nil {
			return fmt.Errorf("failed to index experiment: %w", err)
		}
	}

	return nil
}
