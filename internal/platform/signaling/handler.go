package signaling

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	relay *Relay
}

func NewHandler(relay *Relay) *Handler {
	return &Handler{relay: relay}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/signaling", auth.RequireRole(auth.RolePhysician, auth.RolePatient))
	g.POST("/:id/join", h.Join)
	g.POST("/:id/leave", h.Leave)
	g.POST("/:id/signal", h.Signal)
	g.GET("/:id/state", h.State)
}

type joinRequest struct {
	Role string `json:"role"`
}

func (h *Handler) Join(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req joinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.relay.Join(c.Request().Context(), id, userID, req.Role); err != nil {
		switch {
		case errors.Is(err, ErrChannelFull):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidRole):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"topic":        ChannelTopic(id),
		"participants": h.relay.Participants(id),
	})
}

func (h *Handler) Leave(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.relay.Leave(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotParticipant) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Signal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var msg SignalMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg.SessionID = id
	msg.From = auth.UserIDFromContext(c.Request().Context())

	if err := h.relay.Signal(c.Request().Context(), msg); err != nil {
		switch {
		case errors.Is(err, ErrNotReady):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrNotParticipant):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrBadSignal):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) State(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":        h.relay.State(id),
		"participants": h.relay.Participants(id),
	})
}
