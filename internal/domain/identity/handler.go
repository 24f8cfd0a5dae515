package identity

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
	readGroup := api.Group("", auth.RequireRole(auth.RoleHospitalAdmin, auth.RoleAgent, auth.RolePhysician))
	readGroup.GET("/profiles", h.ListProfiles)
	readGroup.GET("/profiles/:id", h.GetProfile)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleHospitalAdmin))
	adminGroup.POST("/profiles", h.CreateProfile)
	adminGroup.PUT("/profiles/:id", h.UpdateProfile)
	adminGroup.POST("/profiles/:id/deactivate", h.Deactivate)

	agentGroup := api.Group("", auth.RequireRole(auth.RoleAgent, auth.RoleHospitalAdmin))
	agentGroup.POST("/assisted-patients", h.AssignAssistedPatient)
	agentGroup.GET("/assisted-patients", h.ListAssistedPatients)
	agentGroup.DELETE("/assisted-patients/:id", h.RemoveAssistedPatient)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProfile(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProfiles(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"role", "specialty", "is_active", "name"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.SearchProfiles(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateProfile(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Deactivate(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AssignAssistedPatient(c echo.Context) error {
	var a AgentAssistedPatient
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if a.AgentID == uuid.Nil {
		// Agents assign to themselves unless an admin names the agent.
		if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
			a.AgentID = id
		}
	}
	if err := h.svc.AssignAssistedPatient(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAssistedPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	agentParam := c.QueryParam("agent_id")
	if agentParam == "" {
		agentParam = auth.UserIDFromContext(c.Request().Context())
	}
	agentID, err := uuid.Parse(agentParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid agent_id")
	}
	items, total, err := h.svc.ListAssistedPatients(c.Request().Context(), agentID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RemoveAssistedPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveAssistedPatient(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "assignment not found")
	}
	return c.NoContent(http.StatusNoContent)
}
