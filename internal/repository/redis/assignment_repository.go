package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gigrecs/domain"

	"github.com/redis/go-redis/v9"
)

// AssignmentRepository stores one hash per (experiment, user) plus a
// per-experiment member set for aggregation. First-write-wins is
// enforced with HSETNX on the variant field, so concurrent first
// assignments for the same user converge on whichever write landed
// first.
type AssignmentRepository struct {
	client *redis.Client
}

func NewAssignmentRepository(client *redis.Client) *AssignmentRepository {
	return &AssignmentRepository{client: client}
}

const (
	fieldVariant        = "variant_id"
	fieldAssignedAt     = "assigned_at"
	fieldConversions    = "conversions"
	fieldLastConversion = "last_conversion"
)

func assignmentKey(experimentID, userID string) string {
	return fmt.Sprintf("assignment:%s:%s", experimentID, userID)
}

func assignmentIndexKey(experimentID string) string {
	return fmt.Sprintf("assignment:index:%s", experimentID)
}

func (r *AssignmentRepository) Get(ctx context.Context, experimentID, userID string) (*domain.Assignment, error) {
	key := assignmentKey(experimentID, userID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return parseAssignment(experimentID, userID, fields)
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error) {
	key := assignmentKey(assignment.ExperimentID, assignment.UserID)

	created, err := r.client.HSetNX(ctx, key, fieldVariant, assignment.VariantID).Result()
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to store assignment: %w", err)
	}

	if !created {
		// lost the race: the stored assignment is authoritative
		existing, err := r.Get(ctx, assignment.ExperimentID, assignment.UserID)
		if err != nil {
			return domain.Assignment{}, err
		}
		if existing != nil {
			return *existing, nil
		}
		return assignment, nil
	}

	err = r.client.HSet(ctx, key,
		fieldAssignedAt, assignment.AssignedAt.UTC().Format(time.RFC3339Nano),
		fieldConversions, 0,
	).Err()
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to store assignment metadata: %w", err)
	}

	err = r.client.SAdd(ctx, assignmentIndexKey(assignment.ExperimentID), assignment.UserID).Err()
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to index assignment: %w", err)
	}

	return assignment, nil
}

func (r *AssignmentRepository) IncrementConversion(ctx context.Context, experimentID, userID string, at time.Time) error {
	key := assignmentKey(experimentID, userID)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, fieldConversions, 1)
	pipe.HSet(ctx, key, fieldLastConversion, at.UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment conversion: %w", err)
	}

	return nil
}

func (r *AssignmentRepository) ListByExperiment(ctx context.Context, experimentID string) ([]domain.Assignment, error) {
	userIDs, err := r.client.SMembers(ctx, assignmentIndexKey(experimentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment index: %w", err)
	}
	if len(userIDs) == 0 {
		return []domain.Assignment{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(userIDs))
	for i, uid := range userIDs {
		cmds[i] = pipe.HGetAll(ctx, assignmentKey(experimentID, uid))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}

	out := make([]domain.Assignment, 0, len(userIDs))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		a, err := parseAssignment(experimentID, userIDs[i], fields)
		if err != nil {
			continue
		}
		out = append(out, *a)
	}

	return out, nil
}

func parseAssignment(experimentID, userID string, fields map[string]string) (*domain.Assignment, error) {
	variant, ok := fields[fieldVariant]
	if !ok {
		return nil, fmt.Errorf("assignment for user %s has no variant", userID)
	}

	a := domain.Assignment{
		UserID:       userID,
		ExperimentID: experimentID,
		VariantID:    variant,
		Persisted:    true,
	}

	if raw, ok := fields[fieldAssignedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			a.AssignedAt = t
		}
	}

	if raw, ok := fields[fieldConversions]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			a.Conversions = n
		}
	}

	if raw, ok := fields[fieldLastConversion]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			a.LastConversion = &t
		}
	}

	return &a, nil
}
