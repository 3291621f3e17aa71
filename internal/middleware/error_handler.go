package middleware

import (
	"net/http"

	"gigrecs/pkg/logger"
	jsonres "gigrecs/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the echo HTTPErrorHandler; it keeps unhandled errors
// in the JSON envelope instead of the default HTML error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}

	_ = c.JSON(code, jsonres.Error(http.StatusText(code), message, nil))
}
