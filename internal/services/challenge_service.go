package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"daily-squad/internal/deadline"
	"daily-squad/internal/models"
	"daily-squad/internal/repository"

	"github.com/google/uuid"
)

const maxReasonLength = 500

// ChallengeService records member objections to finalized outcomes. Each
// accepted challenge re-evaluates quorum in the same transaction as the insert.
type ChallengeService struct {
	repo     *repository.Repository
	outcomes *OutcomeService
	roster   Roster
	clock    deadline.Clock
	metrics  *Metrics
	logger   *slog.Logger
}

func NewChallengeService(
	repo *repository.Repository,
	outcomes *OutcomeService,
	roster Roster,
	clock deadline.Clock,
	metrics *Metrics,
	logger *slog.Logger,
) *ChallengeService {
	return &ChallengeService{
		repo:     repo,
		outcomes: outcomes,
		roster:   roster,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Challenge records userID's objection to the event outcome
func (s *ChallengeService) Challenge(
	ctx context.Context,
	eventID uuid.UUID,
	userID uuid.UUID,
	reason string,
) (*models.ChallengeResponse, error) {
	outcome, err := s.outcomes.loadOutcome(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if outcome.Overturned {
		return nil, ErrOutcomeAlreadyOverturned
	}
	if outcome.FinalizedBy == userID {
		return nil, ErrJudgeCannotChallenge
	}

	now := s.clock.Now()
	if deadline.Expired(now, outcome.FinalizedAt, s.outcomes.Window()) {
		if _, _, err := s.outcomes.settle(ctx, outcome, now); err != nil {
			s.logger.ErrorContext(ctx, "failed to settle expired outcome", "outcome_id", outcome.ID, "error", err)
		}
		return nil, ErrChallengeWindowExpired
	}

	member, err := s.roster.IsMember(ctx, outcome.SquadID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotSquadMember
	}
	size, err := s.roster.MemberCount(ctx, outcome.SquadID)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if runes := []rune(reason); len(runes) > maxReasonLength {
		reason = string(runes[:maxReasonLength])
	}
	challenge := &models.OutcomeChallenge{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		OutcomeID: outcome.ID,
		Reason:    reason,
		CreatedAt: now,
	}

	var decision QuorumDecision
	var flipped bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := tx.LockOutcome(ctx, outcome.ID)
		if err != nil {
			return fmt.Errorf("failed to lock outcome: %w", err)
		}
		outcome = current

		if current.Overturned {
			return ErrOutcomeAlreadyOverturned
		}
		if current.Resolution != models.OutcomeResolutionPending {
			// approved by a sweep that ran between the checks above and here
			return ErrChallengeWindowExpired
		}

		if err := tx.CreateChallenge(ctx, challenge); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyChallenged
			}
			return fmt.Errorf("failed to create challenge: %w", err)
		}

		count, err := tx.CountChallenges(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count challenges: %w", err)
		}
		decision = EvaluateQuorum(count, size, current.Overturned)
		if !decision.Overturn {
			return nil
		}

		flipped, err = s.outcomes.overturn(ctx, tx, current, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.challenged()
	s.logger.InfoContext(ctx, "outcome challenged",
		"event_id", eventID,
		"outcome_id", outcome.ID,
		"user_id", userID,
		"challenges", decision.ChallengeCount,
		"squad_size", decision.SquadSize,
	)
	if flipped {
		s.outcomes.overturned(ctx, outcome, decision)
	}

	return &models.ChallengeResponse{
		Challenge:      challenge,
		ChallengeCount: decision.ChallengeCount,
		SquadSize:      decision.SquadSize,
		Threshold:      decision.Threshold.String(),
		Overturned:     outcome.Overturned,
	}, nil
}

// Reevaluate runs the quorum evaluator for the event on demand. Repeated
// calls never apply a side effect twice.
func (s *ChallengeService) Reevaluate(ctx context.Context, eventID uuid.UUID) (*models.OutcomeResponse, error) {
	return s.outcomes.GetOutcome(ctx, eventID)
}

// ListChallenges returns the event's challenges, oldest first
func (s *ChallengeService) ListChallenges(ctx context.Context, eventID uuid.UUID) ([]*models.OutcomeChallenge, error) {
	if _, err := s.outcomes.lifecycle.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	challenges, err := s.repo.ListChallenges(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, nil
}
