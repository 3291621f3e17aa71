package postgres

import (
	"context"
	"errors"
	"fmt"

	"gigrecs/domain"

	"gorm.io/gorm"
)

// TrainingRepository serves the flat result sets the recommender trains
// on: interactions and user preferences.
type TrainingRepository struct {
	DB *gorm.DB
}

func NewTrainingRepository(db *gorm.DB) *TrainingRepository {
	return &TrainingRepository{DB: db}
}

func (r *TrainingRepository) Interactions(ctx context.Context) ([]domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var interactions []domain.Interaction
	err := r.DB.WithContext(ctx).Order("created_at ASC, id ASC").Find(&interactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}

	return interactions, nil
}

func (r *TrainingRepository) Preferences(ctx context.Context) ([]domain.UserPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var prefs []domain.UserPreference
	if err := r.DB.WithContext(ctx).Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("failed to query user preferences: %w", err)
	}

	return prefs, nil
}

func (r *TrainingRepository) PreferencesFor(ctx context.Context, userID string) (*domain.UserPreference, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var prefs domain.UserPreference
	err := r.DB.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences for user %s: %w", userID, err)
	}

	return &prefs, nil
}
