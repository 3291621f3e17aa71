package postgres

import (
	"context"
	"fmt"

	"gigrecs/domain"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

// SaveFeedback appends one feedback row; the table is append-only and
// consumed by the next retraining cycle.
func (r *FeedbackRepository) SaveFeedback(ctx context.Context, event domain.FeedbackEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to save feedback event: %w", err)
	}

	return nil
}
