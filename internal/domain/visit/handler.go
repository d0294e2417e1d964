package visit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/pkg/response"
)

const (
	MsgNotFound       = "Visit not found"
	MsgPersonNotFound = "Person not found"
	MsgNoMedication   = "No medication found"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/persons/:cid/visits", h.ListVisits)
	g.POST("/visits", h.CreateVisit)
	g.PUT("/visits/:id", h.UpdateVisit)
	g.DELETE("/visits/:id", h.DeleteVisit)
	g.GET("/fetchMed/:cid", h.FetchMedication)
}

func (h *Handler) ListVisits(c echo.Context) error {
	items, err := h.svc.ListVisits(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, items)
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateVisit(c.Request().Context(), &v); err != nil {
		return mapError(err)
	}
	return response.Created(c, "Visit created successfully", v)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateVisit(c.Request().Context(), id, &v); err != nil {
		return mapError(err)
	}
	return response.Updated(c, "Visit updated successfully", v)
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVisit(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return response.Message(c, "Visit deleted successfully")
}

// FetchMedication answers GET /fetchMed/:cid with the latest visit that has
// a prescription.
func (h *Handler) FetchMedication(c echo.Context) error {
	v, err := h.svc.LatestMedication(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return mapError(err)
	}
	return response.OK(c, v)
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
	case errors.Is(err, ErrPersonNotFound):
		return echo.NewHTTPError(http.StatusNotFound, MsgPersonNotFound)
	case errors.Is(err, ErrOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, ErrOutOfRange.Error())
	case errors.Is(err, ErrNoMedication):
		return echo.NewHTTPError(http.StatusNotFound, MsgNoMedication)
	}
	return err
}
