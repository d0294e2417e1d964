package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/James-CPE/API-NCD/internal/platform/middleware"
)

func postLogin(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = "203.0.113.7:40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newTestServer(t *testing.T, mw ...echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	svc, _, _ := newTestService(t)
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop())
	NewHandler(svc, mw...).RegisterRoutes(e.Group(""))
	return e
}

func TestHandler_Login(t *testing.T) {
	e := newTestServer(t)

	rec := postLogin(e, `{"username":"10669","password":"hosp-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"success"`)
	assert.Contains(t, body, `"token"`)
	assert.NotContains(t, body, "hosp-pass")
	assert.NotContains(t, body, "password")
}

func TestHandler_Login_IdenticalFailures(t *testing.T) {
	e := newTestServer(t)

	wrong := postLogin(e, `{"username":"10669","password":"bad"}`)
	unknown := postLogin(e, `{"username":"nobody","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.JSONEq(t, `{"status":"error","message":"Invalid username or password"}`, wrong.Body.String())

	missing := postLogin(e, `{"username":"10669"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, missing.Body.String(), MsgMissingCredentials)
}

func TestHandler_Login_RateLimited(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := middleware.NewMemoryWindowStoreWithClock(func() time.Time { return now })
	cfg := middleware.DefaultRateLimitConfig()
	cfg.Limit = 2
	cfg.Store = store
	e := newTestServer(t, middleware.RateLimit(cfg))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, postLogin(e, `{"username":"x","password":"y"}`).Code)
	}
	rec := postLogin(e, `{"username":"10669","password":"hosp-pass"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	now = now.Add(time.Minute + time.Second)
	rec = postLogin(e, `{"username":"10669","password":"hosp-pass"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ListUsers(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"Admin"`)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}
