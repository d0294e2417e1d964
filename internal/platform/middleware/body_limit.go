package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/pkg/response"
)

// BodyLimit caps request bodies at limit, a size such as "1M", "512K" or a
// bare byte count. Oversized requests get 413.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes := ParseLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			if req.ContentLength > maxBytes {
				return payloadTooLarge(c, maxBytes)
			}

			// Content-Length may be absent or wrong.
			req.Body = &limitedReadCloser{
				ReadCloser: req.Body,
				remaining:  maxBytes,
			}

			return next(c)
		}
	}
}

type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
	exceeded  bool
}

func (r *limitedReadCloser) Read(p []byte) (n int, err error) {
	if r.exceeded {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	toRead := int64(len(p))
	if toRead > r.remaining+1 {
		toRead = r.remaining + 1
	}

	n, err = r.ReadCloser.Read(p[:toRead])
	r.remaining -= int64(n)

	if r.remaining < 0 {
		r.exceeded = true
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	return n, err
}

func payloadTooLarge(c echo.Context, limit int64) error {
	return response.Error(c, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("Request body exceeds maximum allowed size of %d bytes", limit))
}

// ParseLimit converts "1M", "512K", "2G" (optionally with a B suffix) into
// bytes. Unparseable input yields 1 MB.
func ParseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 1 << 20
	}

	s = strings.TrimSuffix(s, "B")
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n * multiplier
}
