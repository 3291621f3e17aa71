package recommender

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gigrecs/domain"
	"gigrecs/pkg/logger"
	"gigrecs/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const defaultLimit = 20

// Service owns the active model snapshot and serves ranked
// recommendations under the four strategy variants. Serving only reads
// the published snapshot; training builds a replacement on the side and
// publishes it with an atomic swap, so in-flight requests keep the
// snapshot they started with.
type Service struct {
	events    EventRepository
	training  TrainingDataRepository
	feedback  FeedbackRepository
	artifacts ModelArtifactRepository

	minTrainingSamples int
	now                clock

	active  atomic.Pointer[Snapshot]
	trainMu sync.Mutex
}

func NewService(
	events EventRepository,
	training TrainingDataRepository,
	feedback FeedbackRepository,
	artifacts ModelArtifactRepository,
	minTrainingSamples int,
) *Service {
	return &Service{
		events:             events,
		training:           training,
		feedback:           feedback,
		artifacts:          artifacts,
		minTrainingSamples: minTrainingSamples,
		now:                time.Now,
	}
}

// Loaded reports whether a snapshot is currently published.
func (s *Service) Loaded() bool {
	return s.active.Load() != nil
}

// ---- Serving ----

// Predict returns ranked recommendations for a user under the given
// experiment variant, then re-ranks with any taste signals in reqCtx.
// With no snapshot published every variant degrades to popularity.
func (s *Service) Predict(
	ctx context.Context,
	userID string,
	city string,
	limit int,
	variant string,
	reqCtx map[string]any,
) ([]domain.ScoredEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	start := time.Now()

	events, err := s.events.EligibleEvents(ctx, city)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("event_fetch").Inc()
		return nil, &DataSourceError{Op: "eligible events", Err: err}
	}

	snap := s.active.Load()
	now := s.now()

	var recs []domain.ScoredEvent

	switch {
	case snap == nil:
		// unloaded engine: popularity regardless of variant
		recs, err = s.popularity(ctx, events, now, limit)
	case variant == domain.AlgorithmCollaborative:
		recs, err = s.collaborative(ctx, snap, userID, events, now, limit)
	case variant == domain.AlgorithmContentBased:
		recs, err = s.contentBased(ctx, userID, events, now, limit)
	case variant == domain.AlgorithmHybrid:
		recs, err = s.hybrid(ctx, snap, userID, events, now, limit)
	default:
		recs, err = s.popularity(ctx, events, now, limit)
	}
	if err != nil {
		return nil, err
	}

	recs = BoostWithContext(recs, reqCtx)

	metrics.PredictionsTotal.WithLabelValues(variant).Inc()
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	return recs, nil
}

func (s *Service) popularity(ctx context.Context, events []domain.Event, now time.Time, limit int) ([]domain.ScoredEvent, error) {
	counts, err := s.events.SaveCounts(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("save_counts").Inc()
		return nil, &DataSourceError{Op: "save counts", Err: err}
	}
	return rankByPopularity(events, counts, now, limit), nil
}

func (s *Service) contentBased(ctx context.Context, userID string, events []domain.Event, now time.Time, limit int) ([]domain.ScoredEvent, error) {
	prefs, err := s.training.PreferencesFor(ctx, userID)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("preferences_fetch").Inc()
		return nil, &DataSourceError{Op: "user preferences", Err: err}
	}
	return rankByContent(events, prefs, now, limit), nil
}

func (s *Service) collaborative(ctx context.Context, snap *Snapshot, userID string, events []domain.Event, now time.Time, limit int) ([]domain.ScoredEvent, error) {
	recs, ok := rankByCollaborative(snap, userID, events, now, limit)
	if !ok {
		// cold start: user unknown to the snapshot
		logger.Debug("collaborative cold start, routing to popularity", "user_id", userID)
		return s.popularity(ctx, events, now, limit)
	}
	return recs, nil
}

func (s *Service) hybrid(ctx context.Context, snap *Snapshot, userID string, events []domain.Event, now time.Time, limit int) ([]domain.ScoredEvent, error) {
	cf, err := s.collaborative(ctx, snap, userID, events, now, limit)
	if err != nil {
		return nil, err
	}

	cb, err := s.contentBased(ctx, userID, events, now, limit)
	if err != nil {
		return nil, err
	}

	return mergeHybrid(cf, cb, limit), nil
}

// ---- Feedback ----

// RecordFeedback appends one row to the feedback sink for the next
// retraining cycle.
func (s *Service) RecordFeedback(ctx context.Context, userID, eventID, action string, reqCtx map[string]any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	event := domain.FeedbackEvent{
		UserID:  userID,
		EventID: eventID,
		Action:  action,
		Context: datatypes.JSONMap(reqCtx),
	}

	if err := s.feedback.SaveFeedback(ctx, event); err != nil {
		metrics.ErrorsTotal.WithLabelValues("feedback_save").Inc()
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues(action).Inc()
	return nil
}

// ---- Training ----

// train builds a candidate snapshot from interactions. It never touches
// the active snapshot.
func (s *Service) train(interactions []domain.Interaction) (*Snapshot, error) {
	if len(interactions) < s.minTrainingSamples {
		return nil, &InsufficientDataError{Samples: len(interactions), Minimum: s.minTrainingSamples}
	}

	matrix, userIdx, eventIdx, userIDs, eventIDs := BuildInteractionMatrix(interactions)
	similarity := CosineSimilarity(matrix)

	cells := matrix.NumUsers * matrix.NumEvents
	coverage := 0.0
	if cells > 0 {
		coverage = float64(matrix.NonzeroCells()) / float64(cells) * 100
	}

	return &Snapshot{
		Version:    uuid.NewString(),
		TrainedAt:  s.now(),
		Matrix:     matrix,
		Similarity: similarity,
		UserIdx:    userIdx,
		EventIdx:   eventIdx,
		UserIDs:    userIDs,
		EventIDs:   eventIDs,
		Metrics: domain.ValidationMetrics{
			CoveragePercent:   coverage,
			AvgUserSimilarity: meanSimilarity(similarity),
			NumUsers:          matrix.NumUsers,
			NumEvents:         matrix.NumEvents,
		},
	}, nil
}

// Retrain fetches fresh training data, trains a new snapshot, persists
// it, and publishes it atomically. On any failure the active snapshot is
// left untouched and the error surfaces to the caller.
func (s *Service) Retrain(ctx context.Context) (domain.RetrainResult, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.RetrainResult{}, fmt.Errorf("context error: %w", err)
	}

	start := time.Now()
	logger.Info("starting model retraining")

	interactions, err := s.training.Interactions(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("training_fetch").Inc()
		return domain.RetrainResult{}, &DataSourceError{Op: "interactions", Err: err}
	}
	if len(interactions) == 0 {
		return domain.RetrainResult{}, ErrNoTrainingData
	}

	snap, err := s.train(interactions)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("training").Inc()
		return domain.RetrainResult{}, err
	}

	raw, err := snap.Encode()
	if err != nil {
		return domain.RetrainResult{}, err
	}

	artifact := domain.ModelArtifact{
		Version:   snap.Version,
		TrainedAt: snap.TrainedAt,
		Payload:   raw,
	}
	if err := s.artifacts.SaveArtifact(ctx, artifact); err != nil {
		metrics.ErrorsTotal.WithLabelValues("artifact_save").Inc()
		return domain.RetrainResult{}, fmt.Errorf("failed to persist model artifact: %w", err)
	}

	s.active.Store(snap)

	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	metrics.SetValidationMetrics(
		snap.Metrics.CoveragePercent,
		snap.Metrics.AvgUserSimilarity,
		snap.Metrics.NumUsers,
		snap.Metrics.NumEvents,
	)

	logger.Info("model retrained",
		"version", snap.Version,
		"num_users", snap.Metrics.NumUsers,
		"num_events", snap.Metrics.NumEvents,
		"training_samples", len(interactions),
	)

	return domain.RetrainResult{
		Version:           snap.Version,
		TrainedAt:         snap.TrainedAt,
		TrainingSamples:   len(interactions),
		ValidationMetrics: snap.Metrics,
	}, nil
}

// Load publishes the most recent persisted snapshot. With no artifact on
// record it retrains once to bootstrap. If that also fails the engine
// stays unloaded and serving degrades to popularity.
func (s *Service) Load(ctx context.Context) error {
	artifact, err := s.artifacts.LatestArtifact(ctx)
	if err != nil {
		return &DataSourceError{Op: "latest artifact", Err: err}
	}

	if artifact == nil {
		logger.Warn("no trained model found, training initial model")
		if _, err := s.Retrain(ctx); err != nil {
			return fmt.Errorf("bootstrap training failed: %w", err)
		}
		return nil
	}

	snap, err := DecodeSnapshot(artifact.Payload)
	if err != nil {
		return err
	}

	s.active.Store(snap)
	metrics.SetValidationMetrics(
		snap.Metrics.CoveragePercent,
		snap.Metrics.AvgUserSimilarity,
		snap.Metrics.NumUsers,
		snap.Metrics.NumEvents,
	)

	logger.Info("model loaded", "version", snap.Version, "trained_at", snap.TrainedAt)
	return nil
}

// ModelInfo reports the active snapshot's metrics.
func (s *Service) ModelInfo() domain.ModelInfo {
	snap := s.active.Load()
	if snap == nil {
		return domain.ModelInfo{Version: "unloaded"}
	}

	trainedAt := snap.TrainedAt
	return domain.ModelInfo{
		Version:           snap.Version,
		TrainedAt:         &trainedAt,
		Loaded:            true,
		TrainingSamples:   snap.Matrix.NumUsers,
		ValidationMetrics: snap.Metrics,
	}
}
