package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the per-request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied ids before they reach the logs.
const maxRequestIDLen = 128

// RequestID reuses the caller's X-Request-ID or generates a UUID, stores it
// under "request_id" on the echo context and echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" || len(rid) > maxRequestIDLen {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
