package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger emits one "request" event per request. Handler errors are logged at
// error level; the status reflects what the error handler will send.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			rid, _ := c.Get("request_id").(string)
			status := c.Response().Status
			evt := logger.Info()
			if err != nil {
				status = StatusFromError(err)
				evt = logger.Error().Err(err)
				if status < 500 {
					evt = logger.Warn().Err(err)
				}
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
