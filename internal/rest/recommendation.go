package rest

import (
	"context"
	"net/http"
	"time"

	"gigrecs/domain"
	"gigrecs/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message string `json:"message"`
}

type (
	RecommendationHandler struct {
		validate          *validator.Validate
		recommender       RecommenderService
		experiments       ExperimentService
		defaultExperiment string
		modelVersion      func() string
	}

	RecommenderService interface {
		Predict(ctx context.Context, userID, city string, limit int, variant string, reqCtx map[string]any) ([]domain.ScoredEvent, error)
		RecordFeedback(ctx context.Context, userID, eventID, action string, reqCtx map[string]any) error
	}

	ExperimentService interface {
		Assign(ctx context.Context, userID, experimentID string) (domain.Assignment, error)
		RecordConversion(ctx context.Context, userID, experimentID, action string) error
	}

	RecommendationRequest struct {
		UserID  string         `json:"user_id" validate:"required"`
		City    string         `json:"city"`
		Limit   int            `json:"limit"`
		Context map[string]any `json:"context"`
	}

	RecommendationResponse struct {
		UserID          string               `json:"user_id"`
		Recommendations []domain.ScoredEvent `json:"recommendations"`
		ModelVersion    string               `json:"model_version"`
		ABExperiment    string               `json:"ab_experiment"`
		Variant         string               `json:"variant"`
		LatencyMs       float64              `json:"latency_ms"`
	}

	FeedbackRequest struct {
		UserID  string         `json:"user_id" validate:"required"`
		EventID string         `json:"event_id" validate:"required"`
		Action  string         `json:"action" validate:"required,oneof=save hide click skip"`
		Context map[string]any `json:"context"`
	}
)

// actions that count as experiment conversions
var conversionActions = map[string]bool{
	domain.InteractionSave: true,
	"click":                true,
}

func NewRecommendationHandler(
	recommender RecommenderService,
	experiments ExperimentService,
	defaultExperiment string,
	modelVersion func() string,
) *RecommendationHandler {
	return &RecommendationHandler{
		validate:          validator.New(),
		recommender:       recommender,
		experiments:       experiments,
		defaultExperiment: defaultExperiment,
		modelVersion:      modelVersion,
	}
}

// POST /v1/recommendations
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	start := time.Now()

	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()

	assignment, err := h.experiments.Assign(ctx, req.UserID, h.defaultExperiment)
	if err != nil {
		// serving must not fail on experiment trouble: fall back to control
		logger.Warn("experiment assignment failed, using control", "user_id", req.UserID, "error", err)
		assignment = domain.Assignment{VariantID: domain.AlgorithmPopularity, ExperimentID: h.defaultExperiment}
	}

	recs, err := h.recommender.Predict(ctx, req.UserID, req.City, req.Limit, assignment.VariantID, req.Context)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	resp := RecommendationResponse{
		UserID:          req.UserID,
		Recommendations: recs,
		ModelVersion:    h.modelVersion(),
		ABExperiment:    assignment.ExperimentID,
		Variant:         assignment.VariantID,
		LatencyMs:       float64(time.Since(start).Microseconds()) / 1000,
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(resp))
}

// POST /v1/feedback
func (h *RecommendationHandler) Feedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx := c.Request().Context()

	if err := h.recommender.RecordFeedback(ctx, req.UserID, req.EventID, req.Action, req.Context); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	if conversionActions[req.Action] {
		if err := h.experiments.RecordConversion(ctx, req.UserID, h.defaultExperiment, req.Action); err != nil {
			// conversion tracking is best-effort; the feedback row is saved
			logger.Warn("failed to record conversion", "user_id", req.UserID, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("feedback recorded"))
}
