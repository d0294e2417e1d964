package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/pkg/response"
)

const (
	MsgMissingCredentials = "Username and password are required"
	MsgInvalidCredentials = "Invalid username or password"
)

type Handler struct {
	svc     *Service
	loginMW []echo.MiddlewareFunc
}

// NewHandler builds the handler. loginMW wraps POST /login only, typically
// the login rate limiter.
func NewHandler(svc *Service, loginMW ...echo.MiddlewareFunc) *Handler {
	return &Handler{svc: svc, loginMW: loginMW}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login, h.loginMW...)
	g.GET("/users", h.ListUsers)
}

func (h *Handler) Login(c echo.Context) error {
	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Login(c.Request().Context(), creds)
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, res)
}

func (h *Handler) ListUsers(c echo.Context) error {
	items, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, items)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, MsgMissingCredentials)
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, MsgInvalidCredentials)
	}
	return err
}
