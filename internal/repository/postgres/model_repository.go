package postgres

import (
	"context"
	"errors"
	"fmt"

	"gigrecs/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModelRepository is the versioned artifact store for trained snapshots.
type ModelRepository struct {
	DB *gorm.DB
}

func NewModelRepository(db *gorm.DB) *ModelRepository {
	return &ModelRepository{DB: db}
}

func (r *ModelRepository) SaveArtifact(ctx context.Context, artifact domain.ModelArtifact) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "version"}},
			UpdateAll: true,
		},
	).Create(&artifact).Error
	if err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}

	return nil
}

func (r *ModelRepository) LatestArtifact(ctx context.Context) (*domain.ModelArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var artifact domain.ModelArtifact
	err := r.DB.WithContext(ctx).Order("trained_at DESC").First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest model artifact: %w", err)
	}

	return &artifact, nil
}
