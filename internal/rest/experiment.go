package rest

import (
	"context"
	"net/http"

	"gigrecs/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentHandler struct {
		service ExperimentAdminService
	}

	ExperimentAdminService interface {
		ActiveExperiments(ctx context.Context) ([]domain.Experiment, error)
		Results(ctx context.Context, experimentID string) (domain.ExperimentResults, error)
	}

	ExperimentListResponse struct {
		Experiments []domain.Experiment `json:"experiments"`
		Count       int                 `json:"count"`
	}
)

func NewExperimentHandler(service ExperimentAdminService) *ExperimentHandler {
	return &ExperimentHandler{service: service}
}

// GET /v1/experiments
func (h *ExperimentHandler) List(c echo.Context) error {
	exps, err := h.service.ActiveExperiments(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(ExperimentListResponse{
		Experiments: exps,
		Count:       len(exps),
	}))
}

// GET /v1/experiments/:id/results
func (h *ExperimentHandler) Results(c echo.Context) error {
	experimentID := c.Param("id")
	if experimentID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "experiment id is required"})
	}

	results, err := h.service.Results(c.Request().Context(), experimentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}
