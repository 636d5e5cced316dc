package handlers

import (
	"log/slog"
	"net/http"

	"daily-squad/internal/auth"
	"daily-squad/internal/models"
	"daily-squad/internal/services"

	"github.com/gin-gonic/gin"
)

type OutcomeHandler struct {
	outcomes   *services.OutcomeService
	challenges *services.ChallengeService
	logger     *slog.Logger
}

func NewOutcomeHandler(svc *services.Services, logger *slog.Logger) *OutcomeHandler {
	return &OutcomeHandler{
		outcomes:   svc.Outcomes,
		challenges: svc.Challenges,
		logger:     logger,
	}
}

// FinalizeOutcome lets the judge stamp the event outcome
// POST /api/events/:id/outcome
func (h *OutcomeHandler) FinalizeOutcome(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	var req models.FinalizeOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	outcome, err := h.outcomes.Finalize(c.Request.Context(), eventID, userID, req.Payload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, outcome)
}

// GetOutcome returns the outcome and its dispute state
// GET /api/events/:id/outcome
func (h *OutcomeHandler) GetOutcome(c *gin.Context) {
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	outcome, err := h.outcomes.GetOutcome(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SubmitChallenge records the caller's objection to the outcome
// POST /api/events/:id/challenges
func (h *OutcomeHandler) SubmitChallenge(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	var req models.ChallengeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.challenges.Challenge(c.Request.Context(), eventID, userID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListChallenges lists the challenges against the outcome
// GET /api/events/:id/challenges
func (h *OutcomeHandler) ListChallenges(c *gin.Context) {
	eventID, ok := pathID(c, "event")
	if !ok {
		return
	}

	challenges, err := h.challenges.ListChallenges(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenges": challenges, "count": len(challenges)})
}
