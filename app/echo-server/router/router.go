package router

import (
	"gigrecs/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, authRequired echo.MiddlewareFunc) {
	api.POST("/recommendations", handler.Recommend, authRequired)
	api.POST("/feedback", handler.Feedback, authRequired)
}

func SetupModelRoutes(api *echo.Group, handler *rest.ModelHandler, authRequired echo.MiddlewareFunc) {
	model := api.Group("/model", authRequired)
	model.GET("/info", handler.Info)
	model.POST("/retrain", handler.Retrain)
}

func SetupExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler, authRequired echo.MiddlewareFunc) {
	experiments := api.Group("/experiments", authRequired)
	experiments.GET("", handler.List)
	experiments.GET("/:id/results", handler.Results)
}

// SetupOpsRoutes exposes health and prometheus scraping without auth.
func SetupOpsRoutes(e *echo.Echo, health *rest.HealthHandler) {
	e.GET("/health", health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
