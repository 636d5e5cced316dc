package handlers

import (
	"log/slog"
	"net/http"

	"daily-squad/internal/auth"
	"daily-squad/internal/models"
	"daily-squad/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SquadHandler struct {
	squads    *services.SquadService
	lifecycle *services.LifecycleService
	scoring   *services.ScoringService
	logger    *slog.Logger
}

func NewSquadHandler(svc *services.Services, logger *slog.Logger) *SquadHandler {
	return &SquadHandler{
		squads:    svc.Squads,
		lifecycle: svc.Lifecycle,
		scoring:   svc.Scoring,
		logger:    logger,
	}
}

// CreateSquad creates a squad with the caller as first member
// POST /api/squads
func (h *SquadHandler) CreateSquad(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.CreateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Nickname == "" {
		req.Nickname = auth.GetNickname(c)
	}

	squad, err := h.squads.CreateSquad(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, squad)
}

// JoinSquad adds the caller to the squad
// POST /api/squads/:id/members
func (h *SquadHandler) JoinSquad(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	var req models.JoinSquadRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Nickname == "" {
		req.Nickname = auth.GetNickname(c)
	}

	member, err := h.squads.AddMember(c.Request.Context(), squadID, userID, req.Nickname)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// LeaveSquad removes the caller from the squad
// DELETE /api/squads/:id/members/me
func (h *SquadHandler) LeaveSquad(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	if err := h.squads.RemoveMember(c.Request.Context(), squadID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers lists the squad roster
// GET /api/squads/:id/members
func (h *SquadHandler) ListMembers(c *gin.Context) {
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	members, err := h.squads.ListMembers(c.Request.Context(), squadID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// GetJudgeScores lists judge point totals
// GET /api/squads/:id/scores
func (h *SquadHandler) GetJudgeScores(c *gin.Context) {
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	scores, err := h.scoring.JudgeScores(c.Request.Context(), squadID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

// GetTodayEvent returns the squad's event for its local date
// GET /api/squads/:id/today
func (h *SquadHandler) GetTodayEvent(c *gin.Context) {
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	resp, err := h.lifecycle.GetTodayEvent(c.Request.Context(), squadID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CreateEvent schedules the squad's event for a date with a drawn judge
// POST /api/squads/:id/events
func (h *SquadHandler) CreateEvent(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	squadID, ok := pathID(c, "squad")
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	event, created, err := h.lifecycle.ScheduleEvent(c.Request.Context(), squadID, userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, event)
}

// pathID parses the :id path parameter, answering 400 when malformed.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
