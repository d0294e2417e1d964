package person

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
	"github.com/James-CPE/API-NCD/pkg/response"
)

const (
	MsgNotFound  = "Person not found"
	MsgDuplicate = "เลขบัตรประชาชนนี้มีในระบบแล้ว!"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/persons", h.ListPersons)
	g.GET("/personshos", h.ListPersonsByHospital)
	g.GET("/persons/:cid", h.GetPerson)
	g.POST("/persons", h.CreatePerson)
	g.PUT("/persons/:id", h.UpdatePerson)
	g.DELETE("/persons/:id", h.DeletePerson)
}

// ListPersons answers GET /persons?username=.
func (h *Handler) ListPersons(c echo.Context) error {
	return h.list(c, c.QueryParam("username"))
}

// ListPersonsByHospital answers GET /personshos?hospital=.
func (h *Handler) ListPersonsByHospital(c echo.Context) error {
	return h.list(c, c.QueryParam("hospital"))
}

func (h *Handler) list(c echo.Context, legacy string) error {
	ctx := c.Request().Context()
	scope := ResolveScope(auth.PrincipalFromContext(ctx), legacy)
	items, err := h.svc.ListPersons(ctx, scope)
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, items)
}

func (h *Handler) GetPerson(c echo.Context) error {
	p, err := h.svc.GetPerson(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, p)
}

func (h *Handler) CreatePerson(c echo.Context) error {
	var p Person
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreatePerson(c.Request().Context(), &p); err != nil {
		return mapError(err)
	}
	return response.Created(c, "Created successfully", p)
}

func (h *Handler) UpdatePerson(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var p Person
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdatePerson(c.Request().Context(), id, &p); err != nil {
		return mapError(err)
	}
	return response.Updated(c, "Person updated successfully", p)
}

func (h *Handler) DeletePerson(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePerson(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return response.Message(c, "Person deleted successfully")
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func mapError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, MsgNotFound)
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, MsgDuplicate)
	}
	return err
}
