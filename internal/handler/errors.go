package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-planner/internal/apperr"
	"github.com/iliyamo/travel-planner/internal/logging"
)

// ErrorHandler renders any error returned by a handler or middleware as the
// envelope. Server errors are logged with their cause; with debug set the
// cause is also rendered in the error field.
func ErrorHandler(log logging.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := classify(err, c)
		if code >= http.StatusInternalServerError {
			log.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}
		env := Envelope{Status: statusWord(code), Message: msg}
		if debug && code >= http.StatusInternalServerError {
			env.Error = err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, env)
		}
		if werr != nil {
			log.Error(c.Request().Context(), "write error response", "error", werr)
		}
	}
}

func classify(err error, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, fmt.Sprintf("can't find %s on this server", c.Request().URL.Path)
		case http.StatusInternalServerError:
			return he.Code, "something went wrong"
		}
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, http.StatusText(he.Code)
	}
	ae := apperr.As(err)
	return ae.Status(), ae.Message
}
