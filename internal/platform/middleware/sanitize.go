package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/James-CPE/API-NCD/pkg/response"
)

const maxHeaderValueSize = 8192

var (
	// Logged only; queries are parameterised.
	sqlPatterns = regexp.MustCompile(`(?i)('+\s*;\s*DROP\b|UNION\s+SELECT\b|'\s+OR\s+1\s*=\s*1)`)

	scriptPatterns = regexp.MustCompile(`(?i)(<script|javascript\s*:)`)
)

// Sanitize rejects requests with path traversal, null bytes, header
// injection or script payloads in query parameters with 400.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if containsPathTraversal(path) || containsPathTraversal(rawPath) {
				return reject(c, "Path traversal detected")
			}
			if containsNullByte(path) || containsNullByte(rawPath) {
				return reject(c, "Null byte injection detected")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize {
						return reject(c, "Header value exceeds maximum size: "+name)
					}
					if strings.ContainsAny(v, "\r\n") {
						return reject(c, "Header injection detected: "+name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				for _, v := range values {
					if containsNullByte(v) || containsNullByte(key) {
						return reject(c, "Null byte injection detected in query parameter")
					}
					if sqlPatterns.MatchString(v) {
						logger.Warn().
							Str("param", key).
							Str("path", path).
							Str("remote_ip", c.RealIP()).
							Msg("SQL injection pattern in query parameter")
					}
					if scriptPatterns.MatchString(v) || scriptPatterns.MatchString(key) {
						return reject(c, "Script injection detected in query parameter")
					}
				}
			}

			return next(c)
		}
	}
}

func containsPathTraversal(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "..") || strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func containsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}

func reject(c echo.Context, message string) error {
	return response.Error(c, http.StatusBadRequest, message)
}
