package postgres

import (
	"context"
	"fmt"
	"time"

	"gigrecs/domain"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) EligibleEvents(ctx context.Context, city string) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Where("start_time >= ?", time.Now())
	if city != "" {
		query = query.Where("city = ?", city)
	}

	var events []domain.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query eligible events: %w", err)
	}

	return events, nil
}

type saveCountRow struct {
	EventID string `gorm:"column:event_id"`
	Count   int    `gorm:"column:count"`
}

func (r *EventRepository) SaveCounts(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []saveCountRow
	err := r.DB.WithContext(ctx).
		Model(&domain.Interaction{}).
		Select("event_id, COUNT(*) AS count").
		Where("kind = ?", domain.InteractionSave).
		Group("event_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query save counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EventID] = row.Count
	}

	return counts, nil
}
