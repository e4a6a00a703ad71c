package report

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labms/report-service/internal/domain/patient"
	"github.com/labms/report-service/internal/platform/auth"
	"github.com/labms/report-service/pkg/pagination"
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
	g.GET("/reports/check-tr-id", h.CheckTRID)
	g.GET("/reports", h.ListReports)
	g.GET("/reports/mine", h.MyReports)
	g.POST("/reports", h.CreateReport)
	g.GET("/reports/:id", h.GetReport)
	g.PUT("/reports/:id", h.UpdateReport)
	g.DELETE("/reports/:id", h.DeleteReport)
	g.PUT("/reports/:id/restore", h.RestoreReport)
	g.POST("/reports/:id/photo", h.AttachPhoto)
	g.GET("/reports/:id/photo", h.GetPhoto)
	g.DELETE("/reports/:id/photo", h.RemovePhoto)
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, patient.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotValidated), errors.Is(err, patient.ErrInvalidIdentifier):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoPhoto):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
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

func (h *Handler) CheckTRID(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.UserIDFromContext(ctx)
	token := auth.BearerFromContext(ctx)

	trid := c.QueryParam("trIdNumber")
	if trid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "trIdNumber is required")
	}

	ok, err := h.svc.ValidateTRID(ctx, token, actor, trid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": ok})
}

func (h *Handler) CreateReport(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if d.FileNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fileNumber is required")
	}
	if d.DiagnosisTitle == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "diagnosisTitle is required")
	}

	ctx := c.Request().Context()
	rep, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), d)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	rep, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

// parseFilter reads the search predicates from the query string.
func parseFilter(c echo.Context) (Filter, error) {
	f := Filter{
		FileNumber:       c.QueryParam("fileNumber"),
		PatientTRID:      c.QueryParam("trIdNumber"),
		Technician:       c.QueryParam("technician"),
		DiagnosisTitle:   c.QueryParam("diagnosis"),
		DiagnosisDetails: c.QueryParam("details"),
		Deleted:          c.QueryParam("deleted") == "true",
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		f.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		f.To = t
	}
	if v := c.QueryParam("hasPhoto"); v != "" {
		hasPhoto := v == "true"
		f.HasPhoto = &hasPhoto
	}
	return f, nil
}

func (h *Handler) ListReports(c echo.Context) error {
	pg := pagination.FromContext(c, "report_date", "file_number", "created_at")
	f, err := parseFilter(c)
	if err != nil {
		return err
	}

	items, total, err := h.svc.Search(c.Request().Context(), f, pg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// MyReports lists the caller's own reports. The owner predicate comes from
// the authenticated identity, never from the query string.
func (h *Handler) MyReports(c echo.Context) error {
	pg := pagination.FromContext(c, "report_date", "file_number", "created_at")
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	f.Technician = auth.UserIDFromContext(c.Request().Context())

	items, total, err := h.svc.Search(c.Request().Context(), f, pg)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rep, err := h.svc.Update(ctx, auth.UserIDFromContext(ctx), id, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) DeleteReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.SoftDelete(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RestoreReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rep, err := h.svc.Restore(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) AttachPhoto(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	rep, err := h.svc.AttachPhoto(ctx, auth.UserIDFromContext(ctx), id, fh.Filename, content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) GetPhoto(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	data, err := h.svc.Photo(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

func (h *Handler) RemovePhoto(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.RemovePhoto(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
