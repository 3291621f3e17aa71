package experiment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gigrecs/domain"
	"gigrecs/pkg/logger"
)

// ---- Repository interfaces ----

type AssignmentRepository interface {
	// Get returns (nil, nil) when no assignment exists.
	Get(ctx context.Context, experimentID, userID string) (*domain.Assignment, error)

	// Create persists a new assignment with first-write-wins semantics:
	// if a concurrent writer got there first, the stored assignment is
	// returned instead of the given one.
	Create(ctx context.Context, assignment domain.Assignment) (domain.Assignment, error)

	IncrementConversion(ctx context.Context, experimentID, userID string, at time.Time) error

	ListByExperiment(ctx context.Context, experimentID string) ([]domain.Assignment, error)
}

type CatalogRepository interface {
	// Get returns (nil, nil) when the experiment is unknown.
	Get(ctx context.Context, experimentID string) (*domain.Experiment, error)
	ListActive(ctx context.Context) ([]domain.Experiment, error)
	// Seed stores the experiment only when absent.
	Seed(ctx context.Context, exp domain.Experiment) error
}

// ---- Service ----

type Service struct {
	assignments AssignmentRepository
	catalog     CatalogRepository

	defaultExperimentID string
	controlVariant      string
	now                 func() time.Time
}

func NewService(
	assignments AssignmentRepository,
	catalog CatalogRepository,
	defaultExperimentID string,
	controlVariant string,
) *Service {
	return &Service{
		assignments:         assignments,
		catalog:             catalog,
		defaultExperimentID: defaultExperimentID,
		controlVariant:      controlVariant,
		now:                 time.Now,
	}
}

func (s *Service) DefaultExperimentID() string {
	return s.defaultExperimentID
}

// SeedDefaultExperiment installs the standard four-arm strategy
// experiment when the catalog has no entry for it yet.
func (s *Service) SeedDefaultExperiment(ctx context.Context) error {
	exp := domain.Experiment{
		ExperimentID: s.defaultExperimentID,
		Name:         "Recommendation Algorithm Test",
		Status:       domain.ExperimentStatusActive,
		Variants: []domain.Variant{
			{VariantID: s.controlVariant, Weight: 0.25, Description: "Popularity-based"},
			{VariantID: domain.AlgorithmCollaborative, Weight: 0.25, Description: "Collaborative Filtering"},
			{VariantID: domain.AlgorithmContentBased, Weight: 0.25, Description: "Content-Based"},
			{VariantID: domain.AlgorithmHybrid, Weight: 0.25, Description: "Hybrid Model"},
		},
		CreatedAt: s.now(),
	}

	if err := s.catalog.Seed(ctx, exp); err != nil {
		return fmt.Errorf("failed to seed default experiment: %w", err)
	}

	return nil
}

// Assign returns the user's variant for an experiment. An existing
// persisted assignment always wins; otherwise the user is bucketed by
// hash fraction over the cumulative variant weights and the result is
// persisted. A persistence failure degrades to an ephemeral assignment
// rather than failing the caller.
func (s *Service) Assign(ctx context.Context, userID, experimentID string) (domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Assignment{}, fmt.Errorf("context error: %w", err)
	}

	exp, err := s.catalog.Get(ctx, experimentID)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("failed to load experiment %s: %w", experimentID, err)
	}
	if exp == nil {
		return domain.Assignment{}, fmt.Errorf("experiment %s not found", experimentID)
	}

	existing, err := s.assignments.Get(ctx, experimentID, userID)
	if err != nil {
		logger.Warn("assignment lookup failed, computing ephemeral assignment",
			"experiment_id", experimentID, "user_id", userID, "error", err)
	}
	if existing != nil {
		return *existing, nil
	}

	assignment := domain.Assignment{
		UserID:       userID,
		ExperimentID: experimentID,
		VariantID:    s.pickVariant(userID, exp),
		AssignedAt:   s.now(),
		Persisted:    true,
	}

	stored, err := s.assignments.Create(ctx, assignment)
	if err != nil {
		logger.Warn("failed to persist assignment, returning ephemeral variant",
			"experiment_id", experimentID, "user_id", userID, "variant", assignment.VariantID, "error", err)
		assignment.Persisted = false
		return assignment, nil
	}

	return stored, nil
}

// pickVariant walks the variants in configured order and assigns the
// first whose cumulative weight covers the user's hash fraction. Weights
// that fail to cover [0, 1) fall through to the control variant; that is
// the documented behavior for a misconfigured experiment, not an error.
func (s *Service) pickVariant(userID string, exp *domain.Experiment) string {
	fraction := hashFraction(userID)

	cumulative := 0.0
	for _, v := range exp.Variants {
		cumulative += v.Weight
		if fraction <= cumulative {
			return v.VariantID
		}
	}

	logger.Warn("variant weights do not cover hash fraction, falling back to control",
		"experiment_id", exp.ExperimentID, "cumulative_weight", cumulative, "fraction", fraction)

	return s.controlVariant
}

// RecordConversion increments the conversion counter on an existing
// assignment. Without an assignment it is a warned no-op: conversions
// from unassigned users carry no experiment signal.
func (s *Service) RecordConversion(ctx context.Context, userID, experimentID, action string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	existing, err := s.assignments.Get(ctx, experimentID, userID)
	if err != nil {
		return fmt.Errorf("failed to look up assignment: %w", err)
	}
	if existing == nil {
		logger.Warn("no assignment found for conversion",
			"experiment_id", experimentID, "user_id", userID, "action", action)
		return nil
	}

	if err := s.assignments.IncrementConversion(ctx, experimentID, userID, s.now()); err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}

	logger.Debug("conversion recorded",
		"experiment_id", experimentID, "user_id", userID, "variant", existing.VariantID, "action", action)

	return nil
}

// Results aggregates assignments by variant. An experiment with no
// assignments yields an empty variant list, not an error.
func (s *Service) Results(ctx context.Context, experimentID string) (domain.ExperimentResults, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentResults{}, fmt.Errorf("context error: %w", err)
	}

	assignments, err := s.assignments.ListByExperiment(ctx, experimentID)
	if err != nil {
		return domain.ExperimentResults{}, fmt.Errorf("failed to list assignments: %w", err)
	}

	byVariant := make(map[string]*domain.VariantResult)
	for _, a := range assignments {
		vr, ok := byVariant[a.VariantID]
		if !ok {
			vr = &domain.VariantResult{Variant: a.VariantID}
			byVariant[a.VariantID] = vr
		}
		vr.Users++
		vr.Conversions += a.Conversions
	}

	variants := make([]domain.VariantResult, 0, len(byVariant))
	total := 0
	for _, vr := range byVariant {
		if vr.Users > 0 {
			vr.ConversionRate = float64(vr.Conversions) / float64(vr.Users)
		}
		total += vr.Users
		variants = append(variants, *vr)
	}

	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Variant < variants[j].Variant
	})

	status := domain.ExperimentStatusActive
	if exp, err := s.catalog.Get(ctx, experimentID); err == nil && exp != nil {
		status = exp.Status
	}

	return domain.ExperimentResults{
		ExperimentID: experimentID,
		Status:       status,
		Variants:     variants,
		TotalUsers:   total,
	}, nil
}

// ActiveExperiments lists experiments currently accepting traffic.
func (s *Service) ActiveExperiments(ctx context.Context) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	exps, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	return exps, nil
}
