package rest

import (
	"context"
	"net/http"

	"gigrecs/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	ModelHandler struct {
		service ModelService
	}

	ModelService interface {
		ModelInfo() domain.ModelInfo
		Retrain(ctx context.Context) (domain.RetrainResult, error)
	}
)

func NewModelHandler(service ModelService) *ModelHandler {
	return &ModelHandler{service: service}
}

// GET /v1/model/info
func (h *ModelHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.service.ModelInfo()))
}

// POST /v1/model/retrain
func (h *ModelHandler) Retrain(c echo.Context) error {
	result, err := h.service.Retrain(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}
