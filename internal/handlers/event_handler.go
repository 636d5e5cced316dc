package handlers

import (
	"log/slog"
	"net/http"

	"daily-squad/internal/auth"
	"daily-squad/internal/services"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	lifecycle *services.LifecycleService
	logger    *slog.Logger
}

func NewEventHandler(svc *services.Services, logger *slog.Logger) *EventHandler {
	return &EventHandler{lifecycle: svc.Lifecycle, logger: logger}
}

// GetEvent retrieves an event with its countdown hints
// GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	resp, err := h.lifecycle.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// OpenEvent opens a scheduled event
// POST /api/events/:id/open
func (h *EventHandler) OpenEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	event, err := h.lifecycle.OpenEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// CloseEvent closes an open event
// POST /api/events/:id/close
func (h *EventHandler) CloseEvent(c *gin.Context) {
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	event, err := h.lifecycle.CloseEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DrawJudge assigns a random judge other than the caller
// POST /api/events/:id/judge
func (h *EventHandler) DrawJudge(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	event, err := h.lifecycle.DrawJudge(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
