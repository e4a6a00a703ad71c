package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labms/report-service/internal/domain/patient"
	"github.com/labms/report-service/internal/domain/report"
	"github.com/labms/report-service/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("technician")

	g := api.Group("", role)
	g.GET("/reports/:id/pdf", h.ReportPDF)
	g.GET("/reports/:id/prescription", h.GeneratePrescription)
	g.POST("/prescriptions/send", h.SendPrescription)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, report.ErrNotFound), errors.Is(err, patient.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoCachedPrescription):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, patient.ErrEmailEmpty), errors.Is(err, patient.ErrInvalidIdentifier):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, patient.ErrUnexpected):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func reportID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	return id, nil
}

func (h *Handler) ReportPDF(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	doc, err := h.svc.ReportPDF(ctx, auth.BearerFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) GeneratePrescription(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	doc, err := h.svc.Generate(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="prescription.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) SendPrescription(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.svc.Send(ctx, auth.BearerFromContext(ctx), auth.UserIDFromContext(ctx)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
}
