package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader is the request header that carries the shared client secret.
const APIKeyHeader = "api-key"

// ErrInvalidAPIKey is the message returned for a missing or wrong key.
const ErrInvalidAPIKey = "Unauthorized: Invalid API Key"

// APIKeyGate rejects every request whose api-key header does not equal key.
// An empty key rejects all requests.
func APIKeyGate(key string) echo.MiddlewareFunc {
	expected := []byte(key)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ValidAPIKey(expected, c.Request().Header.Get(APIKeyHeader)) {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidAPIKey)
			}
			return next(c)
		}
	}
}

// ValidAPIKey compares presented against expected in constant time.
func ValidAPIKey(expected []byte, presented string) bool {
	if len(expected) == 0 || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare(expected, []byte(presented)) == 1
}
