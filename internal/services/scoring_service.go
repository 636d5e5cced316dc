package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"daily-squad/internal/models"
	"daily-squad/internal/repository"

	"github.com/google/uuid"
)

// ScoringService credits or debits the judge once an outcome is resolved.
type ScoringService struct {
	repo            *repository.Repository
	metrics         *Metrics
	logger          *slog.Logger
	approvalPoints  int64
	overturnPenalty int64
}

func NewScoringService(
	repo *repository.Repository,
	metrics *Metrics,
	logger *slog.Logger,
	approvalPoints int64,
	overturnPenalty int64,
) *ScoringService {
	return &ScoringService{
		repo:            repo,
		metrics:         metrics,
		logger:          logger,
		approvalPoints:  approvalPoints,
		overturnPenalty: overturnPenalty,
	}
}

// Delta is the signed point change for the judge of a resolved outcome.
func (s *ScoringService) Delta(kind models.AwardKind) int64 {
	if kind == models.AwardKindOverturned {
		return -s.overturnPenalty
	}
	return s.approvalPoints
}

// Apply records the judge award for outcome and updates the running score.
// tx must be the repository of the transaction that resolved the outcome.
// The unique award per outcome makes repeated calls a no-op, so applied is
// true only for the call that actually moved the score.
func (s *ScoringService) Apply(
	ctx context.Context,
	tx *repository.Repository,
	outcome *models.EventOutcome,
	kind models.AwardKind,
	now time.Time,
) (bool, error) {
	award := &models.JudgeAward{
		ID:        uuid.New(),
		OutcomeID: outcome.ID,
		EventID:   outcome.EventID,
		SquadID:   outcome.SquadID,
		JudgeID:   outcome.FinalizedBy,
		Kind:      kind,
		Delta:     s.Delta(kind),
		CreatedAt: now,
	}

	inserted, err := tx.CreateAwardIfAbsent(ctx, award)
	if err != nil {
		return false, fmt.Errorf("failed to record judge award: %w", err)
	}
	if !inserted {
		return false, nil
	}

	if err := tx.IncrementJudgeScore(ctx, outcome.SquadID, outcome.FinalizedBy, kind, award.Delta, now); err != nil {
		return false, fmt.Errorf("failed to update judge score: %w", err)
	}
	return true, nil
}

// Committed reports an award once its transaction has committed.
func (s *ScoringService) Committed(ctx context.Context, outcome *models.EventOutcome, kind models.AwardKind) {
	s.metrics.awarded(string(kind))
	s.logger.InfoContext(ctx, "judge award applied",
		"outcome_id", outcome.ID,
		"event_id", outcome.EventID,
		"user_id", outcome.FinalizedBy,
		"kind", kind,
		"delta", s.Delta(kind),
	)
}

// JudgeScores returns the squad's judge point totals, highest first
func (s *ScoringService) JudgeScores(ctx context.Context, squadID uuid.UUID) ([]*models.JudgeScore, error) {
	if _, err := s.repo.GetSquadByID(ctx, squadID); errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSquadNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get squad: %w", err)
	}

	scores, err := s.repo.ListJudgeScores(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge scores: %w", err)
	}
	return scores, nil
}
