package audit

import (
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
	adminGroup := api.Group("", auth.RequireRole(auth.RoleHospitalAdmin))
	adminGroup.GET("/admin-actions", h.ListAdminActions)
	adminGroup.POST("/admin-actions", h.RecordAdminAction)
	adminGroup.GET("/activity-logs", h.ListActivity)
	adminGroup.POST("/activity-logs", h.LogActivity)
	adminGroup.GET("/settings", h.ListSettings)
	adminGroup.GET("/settings/:key", h.GetSetting)
	adminGroup.PUT("/settings/:key", h.PutSetting)
}

func (h *Handler) RecordAdminAction(c echo.Context) error {
	var a AdminAction
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if a.AdminID == uuid.Nil {
		if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			a.AdminID = id
		}
	}
	if err := h.svc.RecordAdminAction(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAdminActions(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f ActionFilter
	if v := c.QueryParam("admin_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid admin_id")
		}
		f.AdminID = id
	}
	f.ActionType = c.QueryParam("action_type")
	f.From = c.QueryParam("from")
	f.To = c.QueryParam("to")

	items, total, err := h.svc.ListAdminActions(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) LogActivity(c echo.Context) error {
	var l UserActivityLog
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if l.IPAddress == nil {
		ip := c.RealIP()
		l.IPAddress = &ip
	}
	if err := h.svc.LogActivity(c.Request().Context(), &l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) ListActivity(c echo.Context) error {
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListActivity(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PutSetting(c echo.Context) error {
	var s SystemSetting
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.Key = c.Param("key")
	if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		s.UpdatedBy = &id
	}
	if err := h.svc.PutSetting(c.Request().Context(), &s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetSetting(c echo.Context) error {
	s, err := h.svc.GetSetting(c.Request().Context(), c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "setting not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSettings(c echo.Context) error {
	items, err := h.svc.ListSettings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
