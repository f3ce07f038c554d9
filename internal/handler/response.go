// Package handler contains the echo handlers. Handlers bind and validate
// input, call a service and render the JSON envelope; every failure is
// returned as an error and rendered by ErrorHandler.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/apperr"
)

const requestTimeout = 5 * time.Second

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	Results *int   `json:"results,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusWord is "fail" for client errors and "error" for server errors.
func statusWord(code int) string {
	switch {
	case code < 400:
		return "success"
	case code < 500:
		return "fail"
	default:
		return "error"
	}
}

func ok(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, Envelope{Status: "success", Message: msg, Data: data})
}

func okList(c echo.Context, msg string, n int, total int64, data any) error {
	return c.JSON(http.StatusOK, Envelope{Status: "success", Message: msg, Results: &n, Total: &total, Data: data})
}

func withToken(c echo.Context, code int, token string, data any) error {
	return c.JSON(code, Envelope{Status: "success", Token: token, Data: data})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
