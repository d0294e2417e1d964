package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/James-CPE/API-NCD/pkg/response"
)

// InternalErrorMessage is the only detail clients see for unclassified failures.
const InternalErrorMessage = "Internal server error"

// StatusFromError returns the HTTP status an error will be rendered with.
func StatusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders every handler error as a {"status":"error"} envelope.
// Non-HTTP errors become 500 and are logged with their cause.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := InternalErrorMessage

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Internal != nil {
				logger.Error().Err(he.Internal).
					Str("request_id", requestID(c)).
					Int("status", code).
					Msg("request failed")
			}
			if code < http.StatusInternalServerError {
				message = httpErrorMessage(he)
			} else if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		} else {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = response.Error(c, code, message)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
