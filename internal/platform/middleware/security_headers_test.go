package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders_SetsHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/persons", nil), rec)

	if err := SecurityHeaders(true)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "no-referrer",
		"Cache-Control":             "no-store",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestSecurityHeaders_NoHSTSByDefault(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/persons", nil), rec)

	_ = SecurityHeaders(false)(func(c echo.Context) error { return nil })(c)
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off when disabled")
	}
}

func TestSecurityHeaders_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/persons", nil), httptest.NewRecorder())

	want := echo.NewHTTPError(http.StatusBadRequest, "bad")
	if err := SecurityHeaders(false)(func(c echo.Context) error { return want })(c); err != want {
		t.Errorf("expected handler error, got %v", err)
	}
}
