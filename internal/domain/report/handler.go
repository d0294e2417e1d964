package report

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/James-CPE/API-NCD/pkg/response"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportFilename  = "hospdata.xlsx"
	ExportPath      = "/hospdata/export"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Dashboard)
	g.GET("/hospdata", h.HospitalSummary)
	g.GET(ExportPath, h.ExportHospitals)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, d)
}

func (h *Handler) HospitalSummary(c echo.Context) error {
	rows, err := h.svc.HospitalSummary(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, rows)
}

func (h *Handler) ExportHospitals(c echo.Context) error {
	data, err := h.svc.ExportHospitals(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+ExportFilename)
	return c.Blob(http.StatusOK, XLSXContentType, data)
}
