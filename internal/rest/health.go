package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type (
	HealthHandler struct {
		serviceName  string
		modelVersion func() string
		modelLoaded  func() bool
	}

	HealthResponse struct {
		Status       string    `json:"status"`
		Service      string    `json:"service"`
		ModelVersion string    `json:"model_version"`
		ModelLoaded  bool      `json:"model_loaded"`
		Timestamp    time.Time `json:"timestamp"`
	}
)

func NewHealthHandler(serviceName string, modelVersion func() string, modelLoaded func() bool) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		modelVersion: modelVersion,
		modelLoaded:  modelLoaded,
	}
}

// GET /health
func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Service:      h.serviceName,
		ModelVersion: h.modelVersion(),
		ModelLoaded:  h.modelLoaded(),
		Timestamp:    time.Now().UTC(),
	})
}
