package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/pkg/response"
)

// TimeoutMessage is sent when a request outlives its deadline.
const TimeoutMessage = "Request processing exceeded the allowed time limit"

// RequestTimeout puts a deadline on the request context and answers 504 if
// the handler has not returned by then. Paths in skip are left unbounded.
//
// The handler keeps running after the 504 is sent, so it must stop once its
// request context is done. Anything it writes after the deadline is
// discarded, but it must not touch the echo.Context from then on.
func RequestTimeout(timeout time.Duration, skip ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 || skipPath(c.Request().URL.Path, skip) {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			res := c.Response()
			orig := res.Writer
			tw := &timeoutWriter{ResponseWriter: orig, header: orig.Header().Clone()}
			res.Writer = tw

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				tw.release()
				res.Writer = orig
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					tw.expire(nil)
					return ctx.Err()
				}
				tw.expire(func(w http.ResponseWriter) {
					w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
					w.WriteHeader(http.StatusGatewayTimeout)
					_ = json.NewEncoder(w).Encode(response.Envelope{Status: response.StatusError, Message: TimeoutMessage})
				})
				return echo.NewHTTPError(http.StatusGatewayTimeout, TimeoutMessage)
			}
		}
	}
}

// timeoutWriter forwards writes until the deadline passes and drops them
// afterwards. Handlers set headers on a private copy that is flushed with
// the status line.
type timeoutWriter struct {
	http.ResponseWriter

	header      http.Header
	mu          sync.Mutex
	wroteHeader bool
	expired     bool
}

// expire stops forwarding. If nothing was sent yet, reply writes the final
// response straight to the client.
func (w *timeoutWriter) expire(reply func(http.ResponseWriter)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.wroteHeader && reply != nil {
		reply(w.ResponseWriter)
	}
	w.wroteHeader = true
	w.expired = true
}

// release hands unsent headers back to the real writer once the handler
// returned in time, so the error handler still sees them.
func (w *timeoutWriter) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.wroteHeader {
		copyHeader(w.ResponseWriter.Header(), w.header)
	}
}

func (w *timeoutWriter) Header() http.Header {
	return w.header
}

func (w *timeoutWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired || w.wroteHeader {
		return
	}
	w.writeHeaderLocked(code)
}

func (w *timeoutWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired {
		return len(b), nil
	}
	if !w.wroteHeader {
		w.writeHeaderLocked(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *timeoutWriter) writeHeaderLocked(code int) {
	copyHeader(w.ResponseWriter.Header(), w.header)
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *timeoutWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = v
	}
}

func skipPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
