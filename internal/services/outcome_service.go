package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"daily-squad/internal/deadline"
	"daily-squad/internal/models"
	"daily-squad/internal/notify"
	"daily-squad/internal/repository"

	"github.com/google/uuid"
)

// OutcomeService finalizes event outcomes and resolves them once their
// challenge window has run out.
type OutcomeService struct {
	repo      *repository.Repository
	lifecycle *LifecycleService
	roster    Roster
	scoring   *ScoringService
	notifier  notify.Notifier
	clock     deadline.Clock
	metrics   *Metrics
	logger    *slog.Logger
	window    time.Duration
}

func NewOutcomeService(
	repo *repository.Repository,
	lifecycle *LifecycleService,
	roster Roster,
	scoring *ScoringService,
	notifier notify.Notifier,
	clock deadline.Clock,
	metrics *Metrics,
	logger *slog.Logger,
	window time.Duration,
) *OutcomeService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if window <= 0 {
		window = deadline.DefaultChallengeWindow
	}
	return &OutcomeService{
		repo:      repo,
		lifecycle: lifecycle,
		roster:    roster,
		scoring:   scoring,
		notifier:  notifier,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		window:    window,
	}
}

// Window is the length of the challenge window after finalization.
func (s *OutcomeService) Window() time.Duration {
	return s.window
}

// Finalize stamps the judge's outcome onto a closed event. Concurrent calls
// race on the unique event_id of the outcome and exactly one of them wins.
func (s *OutcomeService) Finalize(
	ctx context.Context,
	eventID uuid.UUID,
	callerID uuid.UUID,
	payload json.RawMessage,
) (*models.OutcomeResponse, error) {
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, fmt.Errorf("%w: payload must be valid JSON", ErrInvalidEvent)
	}

	event, err := s.lifecycle.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// The judge looking at an event past closes_at is enough to close it.
	now := s.clock.Now()
	if event, err = s.lifecycle.catchUp(ctx, event, now); err != nil {
		return nil, err
	}

	switch event.Status {
	case models.EventStatusClosed:
	case models.EventStatusFinalized:
		return nil, ErrAlreadyFinalized
	default:
		return nil, ErrEventNotClosed
	}
	if event.JudgeID == nil {
		return nil, ErrJudgeNotAssigned
	}
	if *event.JudgeID != callerID {
		return nil, ErrNotJudge
	}

	outcome := &models.EventOutcome{
		ID:          uuid.New(),
		EventID:     event.ID,
		SquadID:     event.SquadID,
		FinalizedBy: callerID,
		Payload:     string(payload),
		FinalizedAt: now,
		Resolution:  models.OutcomeResolutionPending,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateOutcome(ctx, outcome); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyFinalized
			}
			return fmt.Errorf("failed to create outcome: %w", err)
		}

		ok, err := tx.TransitionEventStatus(ctx, event.ID, models.EventStatusClosed, models.EventStatusFinalized, now)
		if err != nil {
			return fmt.Errorf("failed to finalize event: %w", err)
		}
		if !ok {
			// closed is the only status below finalized that reaches here
			return ErrAlreadyFinalized
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.transition(string(models.EventStatusFinalized))
	s.metrics.finalized()
	s.logger.InfoContext(ctx, "outcome finalized",
		"event_id", event.ID,
		"squad_id", event.SquadID,
		"outcome_id", outcome.ID,
		"user_id", callerID,
	)
	s.publish(ctx, notify.KindFinalized, outcome, 0, 0)

	// A window that already ran out approves immediately.
	if deadline.Expired(s.clock.Now(), outcome.FinalizedAt, s.window) {
		if outcome, _, err = s.settle(ctx, outcome, s.clock.Now()); err != nil {
			return nil, err
		}
	}

	return s.describe(ctx, outcome, now)
}

// GetOutcome returns the outcome with its live dispute state. Reading also
// re-evaluates it: quorum against the current roster while the window is
// open, approval once the window has run out.
func (s *OutcomeService) GetOutcome(ctx context.Context, eventID uuid.UUID) (*models.OutcomeResponse, error) {
	outcome, err := s.loadOutcome(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if outcome, err = s.refresh(ctx, outcome, now); err != nil {
		return nil, err
	}
	return s.describe(ctx, outcome, now)
}

// Settle approves outcome if its window has run out without an overturn.
// Calling it again, or on an outcome still inside its window, changes nothing.
func (s *OutcomeService) Settle(ctx context.Context, outcome *models.EventOutcome) (*models.EventOutcome, error) {
	now := s.clock.Now()
	if !deadline.Expired(now, outcome.FinalizedAt, s.window) {
		return outcome, nil
	}
	settled, _, err := s.settle(ctx, outcome, now)
	return settled, err
}

// SettleExpired approves every pending outcome whose window ran out before
// now, at most limit per call, and returns how many it approved.
func (s *OutcomeService) SettleExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	outcomes, err := s.repo.ListExpiredPendingOutcomes(ctx, now.Add(-s.window), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired outcomes: %w", err)
	}

	var approved int
	var errs []error
	for _, outcome := range outcomes {
		_, ok, err := s.settle(ctx, outcome, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to settle outcome", "outcome_id", outcome.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			approved++
		}
	}
	return approved, errors.Join(errs...)
}

// refresh brings a pending outcome up to date as of now.
func (s *OutcomeService) refresh(ctx context.Context, outcome *models.EventOutcome, now time.Time) (*models.EventOutcome, error) {
	if outcome.Overturned || outcome.Resolution != models.OutcomeResolutionPending {
		return outcome, nil
	}
	if deadline.Expired(now, outcome.FinalizedAt, s.window) {
		settled, _, err := s.settle(ctx, outcome, now)
		return settled, err
	}
	return s.evaluate(ctx, outcome, now)
}

// evaluate recounts challenges against the current squad size and flips the
// outcome when a strict majority objects.
func (s *OutcomeService) evaluate(ctx context.Context, outcome *models.EventOutcome, now time.Time) (*models.EventOutcome, error) {
	size, err := s.roster.MemberCount(ctx, outcome.SquadID)
	if err != nil {
		return nil, err
	}

	var decision QuorumDecision
	var flipped bool
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := tx.LockOutcome(ctx, outcome.ID)
		if err != nil {
			return fmt.Errorf("failed to lock outcome: %w", err)
		}
		outcome = current

		count, err := tx.CountChallenges(ctx, current.EventID)
		if err != nil {
			return fmt.Errorf("failed to count challenges: %w", err)
		}
		decision = EvaluateQuorum(count, size, current.Overturned)
		if !decision.Overturn || current.Resolution != models.OutcomeResolutionPending {
			return nil
		}

		flipped, err = s.overturn(ctx, tx, current, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if flipped {
		s.overturned(ctx, outcome, decision)
	}
	return outcome, nil
}

// overturn flips outcome inside tx and debits the judge. It reports false
// when another evaluation already flipped it.
func (s *OutcomeService) overturn(
	ctx context.Context,
	tx *repository.Repository,
	outcome *models.EventOutcome,
	now time.Time,
) (bool, error) {
	flipped, err := tx.MarkOutcomeOverturned(ctx, outcome.ID, now)
	if err != nil {
		return false, fmt.Errorf("failed to overturn outcome: %w", err)
	}
	if !flipped {
		return false, nil
	}

	outcome.Overturned = true
	outcome.OverturnedAt = &now
	outcome.Resolution = models.OutcomeResolutionOverturned
	outcome.ResolvedAt = &now

	if _, err := s.scoring.Apply(ctx, tx, outcome, models.AwardKindOverturned, now); err != nil {
		return false, err
	}
	return true, nil
}

// overturned reports a committed overturn.
func (s *OutcomeService) overturned(ctx context.Context, outcome *models.EventOutcome, decision QuorumDecision) {
	s.metrics.overturned()
	s.scoring.Committed(ctx, outcome, models.AwardKindOverturned)
	s.logger.InfoContext(ctx, "outcome overturned",
		"event_id", outcome.EventID,
		"squad_id", outcome.SquadID,
		"outcome_id", outcome.ID,
		"challenges", decision.ChallengeCount,
		"squad_size", decision.SquadSize,
	)
	s.publish(ctx, notify.KindOverturned, outcome, decision.ChallengeCount, decision.SquadSize)
}

// settle approves a pending outcome whose window has run out and credits
// the judge exactly once. approved is true only for the call that did it.
func (s *OutcomeService) settle(
	ctx context.Context,
	outcome *models.EventOutcome,
	now time.Time,
) (settled *models.EventOutcome, approved bool, err error) {
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.MarkOutcomeApproved(ctx, outcome.ID, now)
		if err != nil {
			return fmt.Errorf("failed to approve outcome: %w", err)
		}
		if !ok {
			return nil
		}
		approved = true
		_, err = s.scoring.Apply(ctx, tx, outcome, models.AwardKindApproved, now)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	current, err := s.repo.GetOutcomeByID(ctx, outcome.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload outcome: %w", err)
	}

	if approved {
		s.metrics.approved()
		s.scoring.Committed(ctx, current, models.AwardKindApproved)
		s.logger.InfoContext(ctx, "outcome approved",
			"event_id", current.EventID,
			"squad_id", current.SquadID,
			"outcome_id", current.ID,
		)
		s.publish(ctx, notify.KindApproved, current, 0, 0)
	}
	return current, approved, nil
}

func (s *OutcomeService) describe(ctx context.Context, outcome *models.EventOutcome, now time.Time) (*models.OutcomeResponse, error) {
	count, err := s.repo.CountChallenges(ctx, outcome.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}
	size, err := s.roster.MemberCount(ctx, outcome.SquadID)
	if err != nil {
		return nil, err
	}
	decision := EvaluateQuorum(count, size, outcome.Overturned)

	return &models.OutcomeResponse{
		ID:             outcome.ID,
		EventID:        outcome.EventID,
		SquadID:        outcome.SquadID,
		FinalizedBy:    outcome.FinalizedBy,
		Payload:        json.RawMessage(outcome.Payload),
		FinalizedAt:    outcome.FinalizedAt,
		Overturned:     outcome.Overturned,
		OverturnedAt:   outcome.OverturnedAt,
		Resolution:     outcome.Resolution,
		ResolvedAt:     outcome.ResolvedAt,
		ChallengeCount: count,
		SquadSize:      size,
		Threshold:      decision.Threshold.String(),
		Deadline:       outcome.Deadline(s.window),
		WindowOpen:     !outcome.Overturned && deadline.WithinWindow(now, outcome.FinalizedAt, s.window),
	}, nil
}

// loadOutcome tells a missing event apart from an event without an outcome.
func (s *OutcomeService) loadOutcome(ctx context.Context, eventID uuid.UUID) (*models.EventOutcome, error) {
	outcome, err := s.repo.GetOutcomeByEventID(ctx, eventID)
	if err == nil {
		return outcome, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}
	if _, err := s.lifecycle.loadEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return nil, ErrOutcomeNotFound
}

// publish hands a notification to the hook. Delivery problems are logged
// and never undo the committed state change.
func (s *OutcomeService) publish(ctx context.Context, kind notify.Kind, outcome *models.EventOutcome, challenges, squadSize int64) {
	n := notify.Notification{
		Kind:           kind,
		EventID:        outcome.EventID,
		OutcomeID:      outcome.ID,
		SquadID:        outcome.SquadID,
		JudgeID:        outcome.FinalizedBy,
		ChallengeCount: challenges,
		SquadSize:      squadSize,
		OccurredAt:     s.clock.Now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.metrics.notifyFailed()
		s.logger.WarnContext(ctx, "notification hook failed",
			"kind", kind,
			"event_id", outcome.EventID,
			"outcome_id", outcome.ID,
			"error", err,
		)
	}
}
