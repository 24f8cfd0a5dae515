package dispute

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleHospitalAdmin, auth.RoleAgent))
	readGroup.GET("/disputes", h.ListDisputes)
	readGroup.GET("/disputes/:id", h.GetDispute)
	readGroup.GET("/financial-alerts", h.ListAlerts)

	api.POST("/disputes", h.CreateDispute,
		auth.RequireRole(auth.RoleHospitalAdmin, auth.RoleAgent, auth.RolePhysician, auth.RolePatient))

	adminGroup := api.Group("", auth.RequireRole(auth.RoleHospitalAdmin))
	adminGroup.POST("/disputes/:id/review", h.ReviewDispute)
	adminGroup.POST("/disputes/:id/resolve", h.ResolveDispute)
}

func (h *Handler) CreateDispute(c echo.Context) error {
	var d FinancialDispute
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if d.RaisedBy == uuid.Nil {
		if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			d.RaisedBy = id
		}
	}
	if err := h.svc.CreateDispute(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDispute(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDispute(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "dispute not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDisputes(c echo.Context) error {
	pg := pagination.FromContext(c)
	var hospitalID uuid.UUID
	if v := c.QueryParam("hospital_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
		}
		hospitalID = id
	}
	status := DisputeStatus(c.QueryParam("status"))

	items, total, err := h.svc.ListDisputes(c.Request().Context(), hospitalID, status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ReviewDispute(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Review(c.Request().Context(), id)
	if err != nil {
		return disputeError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ResolveDispute(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Outcome DisputeStatus `json:"outcome"`
		Note    string        `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid caller")
	}
	d, err := h.svc.Resolve(c.Request().Context(), id, body.Outcome, body.Note, adminID)
	if err != nil {
		return disputeError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListAlerts(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.QueryParam("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAlerts(c.Request().Context(), hospitalID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func disputeError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "dispute not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
