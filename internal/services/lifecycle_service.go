package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"daily-squad/internal/deadline"
	"daily-squad/internal/models"
	"daily-squad/internal/repository"
	"daily-squad/internal/utils"

	"github.com/google/uuid"
)

// Client poll hints, in seconds, for the countdown view.
const (
	pollScheduledSeconds = 30
	pollOpenSeconds      = 5
)

// dueBatchSize bounds how many events one AdvanceDueEvents pass touches.
const dueBatchSize = 200

// Schedule places a generated daily event inside the squad-local day.
type Schedule struct {
	// OpenOffset is measured from squad-local midnight.
	OpenOffset time.Duration
	Duration   time.Duration
}

// LifecycleService owns DailyEvent status. Status only ever moves
// scheduled -> open -> closed -> finalized, and every move is a
// compare-and-set against the stored status.
type LifecycleService struct {
	repo     *repository.Repository
	roster   Roster
	clock    deadline.Clock
	metrics  *Metrics
	logger   *slog.Logger
	schedule Schedule
}

func NewLifecycleService(
	repo *repository.Repository,
	roster Roster,
	clock deadline.Clock,
	metrics *Metrics,
	logger *slog.Logger,
	schedule Schedule,
) *LifecycleService {
	return &LifecycleService{
		repo:     repo,
		roster:   roster,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		schedule: schedule,
	}
}

// CreateDailyEvent schedules the squad's event for a date. When the date
// already has an event, that event is returned and created is false.
func (s *LifecycleService) CreateDailyEvent(
	ctx context.Context,
	squadID uuid.UUID,
	req *models.CreateEventRequest,
) (*models.DailyEvent, bool, error) {
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, false, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidEvent)
	}
	if !req.EventType.Valid() {
		return nil, false, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, req.EventType)
	}
	if !req.ClosesAt.After(req.OpensAt) {
		return nil, false, fmt.Errorf("%w: closes_at must be after opens_at", ErrInvalidEvent)
	}

	if _, err := s.repo.GetSquadByID(ctx, squadID); errors.Is(err, repository.ErrNotFound) {
		return nil, false, ErrSquadNotFound
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get squad: %w", err)
	}

	if req.JudgeID != nil {
		if err := s.requireMember(ctx, squadID, *req.JudgeID); err != nil {
			return nil, false, err
		}
	}

	now := s.clock.Now()
	event := &models.DailyEvent{
		ID:        uuid.New(),
		SquadID:   squadID,
		Date:      req.Date,
		EventType: req.EventType,
		OpensAt:   req.OpensAt.UTC(),
		ClosesAt:  req.ClosesAt.UTC(),
		JudgeID:   req.JudgeID,
		Status:    models.EventStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.insertIfAbsent(ctx, event)
}

// ScheduleEvent is CreateDailyEvent on behalf of a squad member. The judge
// cannot be chosen by the caller; one is drawn from the rest of the roster.
func (s *LifecycleService) ScheduleEvent(
	ctx context.Context,
	squadID uuid.UUID,
	callerID uuid.UUID,
	req *models.CreateEventRequest,
) (*models.DailyEvent, bool, error) {
	if req.JudgeID != nil {
		return nil, false, fmt.Errorf("%w: the judge is drawn, not chosen", ErrInvalidEvent)
	}
	if _, err := s.repo.GetSquadByID(ctx, squadID); errors.Is(err, repository.ErrNotFound) {
		return nil, false, ErrSquadNotFound
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get squad: %w", err)
	}
	if err := s.requireMember(ctx, squadID, callerID); err != nil {
		return nil, false, err
	}

	if existing, err := s.repo.GetEventBySquadDate(ctx, squadID, req.Date); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up event: %w", err)
	}

	judgeID, err := s.drawJudge(ctx, squadID, callerID)
	if err != nil {
		return nil, false, err
	}

	drawn := *req
	drawn.JudgeID = judgeID
	return s.CreateDailyEvent(ctx, squadID, &drawn)
}

func (s *LifecycleService) insertIfAbsent(ctx context.Context, event *models.DailyEvent) (*models.DailyEvent, bool, error) {
	created, err := s.repo.CreateEventIfAbsent(ctx, event)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create event: %w", err)
	}
	if !created {
		existing, err := s.repo.GetEventBySquadDate(ctx, event.SquadID, event.Date)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing event: %w", err)
		}
		return existing, false, nil
	}

	s.logger.InfoContext(ctx, "daily event scheduled",
		"event_id", event.ID,
		"squad_id", event.SquadID,
		"date", event.Date,
		"event_type", event.EventType,
	)
	return event, true, nil
}

// EnsureDailyEvents performs the daily rollover: every squad without an
// event for its local "today" gets one, with a random type and a random
// judge drawn from the current roster.
func (s *LifecycleService) EnsureDailyEvents(ctx context.Context, now time.Time) (int, error) {
	squads, err := s.repo.ListSquads(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list squads: %w", err)
	}

	var created int
	var errs []error
	for _, squad := range squads {
		ok, err := s.ensureDailyEvent(ctx, squad, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "daily rollover failed", "squad_id", squad.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(errs...)
}

func (s *LifecycleService) ensureDailyEvent(ctx context.Context, squad *models.Squad, now time.Time) (bool, error) {
	local := now.In(squad.Location())
	date := local.Format(models.DateLayout)

	if _, err := s.repo.GetEventBySquadDate(ctx, squad.ID, date); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up event: %w", err)
	}

	typeIdx, err := utils.RandomIndex(len(models.EventTypes))
	if err != nil {
		return false, err
	}

	judgeID, err := s.drawJudge(ctx, squad.ID, uuid.Nil)
	if err != nil {
		return false, err
	}

	opensAt := wallClock(local, s.schedule.OpenOffset).UTC()

	event := &models.DailyEvent{
		ID:        uuid.New(),
		SquadID:   squad.ID,
		Date:      date,
		EventType: models.EventTypes[typeIdx],
		OpensAt:   opensAt,
		ClosesAt:  opensAt.Add(s.schedule.Duration),
		JudgeID:   judgeID,
		Status:    models.EventStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, created, err := s.insertIfAbsent(ctx, event)
	return created, err
}

// wallClock returns the instant on local's date whose wall-clock time is
// offset past midnight, so DST changes do not shift the opening hour.
func wallClock(local time.Time, offset time.Duration) time.Time {
	hours := int(offset / time.Hour)
	minutes := int(offset % time.Hour / time.Minute)
	seconds := int(offset % time.Minute / time.Second)
	return time.Date(local.Year(), local.Month(), local.Day(), hours, minutes, seconds, 0, local.Location())
}

// drawJudge picks a random squad member other than exclude. It returns nil
// when nobody is eligible.
func (s *LifecycleService) drawJudge(ctx context.Context, squadID, exclude uuid.UUID) (*uuid.UUID, error) {
	members, err := s.roster.MemberIDs(ctx, squadID)
	if err != nil {
		return nil, err
	}
	eligible := members[:0]
	for _, id := range members {
		if id != exclude {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	idx, err := utils.RandomIndex(len(eligible))
	if err != nil {
		return nil, err
	}
	judgeID := eligible[idx]
	return &judgeID, nil
}

// GetEvent returns the event after applying any transition that is due
func (s *LifecycleService) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.EventResponse, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if event, err = s.catchUp(ctx, event, now); err != nil {
		return nil, err
	}
	return respond(event, now), nil
}

// GetTodayEvent returns the squad's event for its local calendar date
func (s *LifecycleService) GetTodayEvent(ctx context.Context, squadID uuid.UUID) (*models.EventResponse, error) {
	squad, err := s.repo.GetSquadByID(ctx, squadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSquadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get squad: %w", err)
	}

	now := s.clock.Now()
	date := now.In(squad.Location()).Format(models.DateLayout)
	event, err := s.repo.GetEventBySquadDate(ctx, squadID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get today's event: %w", err)
	}

	if event, err = s.catchUp(ctx, event, now); err != nil {
		return nil, err
	}
	return respond(event, now), nil
}

func respond(event *models.DailyEvent, now time.Time) *models.EventResponse {
	return &models.EventResponse{
		Event:            event,
		ServerTime:       now,
		PollAfterSeconds: PollAfterSeconds(event.Status),
	}
}

// PollAfterSeconds is how long a client should wait before re-reading an
// event in the given status. Zero means the status no longer changes on
// its own.
func PollAfterSeconds(status models.EventStatus) int {
	switch status {
	case models.EventStatusScheduled:
		return pollScheduledSeconds
	case models.EventStatusOpen:
		return pollOpenSeconds
	}
	return 0
}

// OpenEvent moves a scheduled event to open once opens_at has been reached
func (s *LifecycleService) OpenEvent(ctx context.Context, eventID uuid.UUID) (*models.DailyEvent, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, event, models.EventStatusOpen, s.clock.Now())
}

// CloseEvent moves an open event to closed once closes_at has been reached
func (s *LifecycleService) CloseEvent(ctx context.Context, eventID uuid.UUID) (*models.DailyEvent, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, event, models.EventStatusClosed, s.clock.Now())
}

// advance moves event to target. A target that is already reached or passed
// is a no-op. Only the next status can be targeted, and only once its time
// has come. Finalization goes through the outcome finalizer instead.
func (s *LifecycleService) advance(
	ctx context.Context,
	event *models.DailyEvent,
	target models.EventStatus,
	now time.Time,
) (*models.DailyEvent, error) {
	if event.Status.Rank() >= target.Rank() {
		return event, nil
	}
	if target == models.EventStatusFinalized || event.Status.Rank()+1 != target.Rank() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, event.Status, target)
	}

	due := event.OpensAt
	if target == models.EventStatusClosed {
		due = event.ClosesAt
	}
	if !deadline.Reached(now, due) {
		return nil, fmt.Errorf("%w: %s at %s", ErrTransitionNotDue, target, due.Format(time.RFC3339))
	}

	ok, err := s.repo.TransitionEventStatus(ctx, event.ID, event.Status, target, now)
	if err != nil {
		return nil, fmt.Errorf("failed to transition event: %w", err)
	}
	if !ok {
		// Someone else moved it first; accept their result if it got there.
		current, err := s.loadEvent(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		if current.Status.Rank() >= target.Rank() {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	event.Status = target
	event.UpdatedAt = now
	s.metrics.transition(string(target))
	s.logger.InfoContext(ctx, "event status changed",
		"event_id", event.ID,
		"squad_id", event.SquadID,
		"status", target,
	)
	return event, nil
}

// catchUp applies every open/close transition that is already due.
func (s *LifecycleService) catchUp(ctx context.Context, event *models.DailyEvent, now time.Time) (*models.DailyEvent, error) {
	var err error
	if event.Status == models.EventStatusScheduled && deadline.Reached(now, event.OpensAt) {
		if event, err = s.advance(ctx, event, models.EventStatusOpen, now); err != nil {
			return nil, err
		}
	}
	if event.Status == models.EventStatusOpen && deadline.Reached(now, event.ClosesAt) {
		if event, err = s.advance(ctx, event, models.EventStatusClosed, now); err != nil {
			return nil, err
		}
	}
	return event, nil
}

// AdvanceDueEvents opens every scheduled event whose opens_at has passed and
// closes every open event whose closes_at has passed.
func (s *LifecycleService) AdvanceDueEvents(ctx context.Context, now time.Time) (opened, closed int, err error) {
	toOpen, err := s.repo.ListEventsDueToOpen(ctx, now, dueBatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list events due to open: %w", err)
	}
	for _, event := range toOpen {
		if _, err := s.advance(ctx, event, models.EventStatusOpen, now); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return opened, closed, err
		}
		opened++
	}

	toClose, err := s.repo.ListEventsDueToClose(ctx, now, dueBatchSize)
	if err != nil {
		return opened, closed, fmt.Errorf("failed to list events due to close: %w", err)
	}
	for _, event := range toClose {
		if _, err := s.advance(ctx, event, models.EventStatusClosed, now); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return opened, closed, err
		}
		closed++
	}
	return opened, closed, nil
}

// AssignJudge sets the event judge. The judge must be on the roster, and
// once set it cannot be replaced.
func (s *LifecycleService) AssignJudge(ctx context.Context, eventID, judgeID uuid.UUID) (*models.DailyEvent, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	done, err := checkJudge(event, judgeID)
	if err != nil {
		return nil, err
	}
	if done {
		return event, nil
	}
	if err := s.requireMember(ctx, event.SquadID, judgeID); err != nil {
		return nil, err
	}
	return s.setJudge(ctx, event, judgeID)
}

// DrawJudge assigns a random judge to an event that has none, on behalf of
// a squad member. The caller is never drawn.
func (s *LifecycleService) DrawJudge(ctx context.Context, eventID, callerID uuid.UUID) (*models.DailyEvent, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, event.SquadID, callerID); err != nil {
		return nil, err
	}
	if event.JudgeID != nil {
		return nil, ErrJudgeAlreadyAssigned
	}
	if _, err := checkJudge(event, uuid.Nil); err != nil {
		return nil, err
	}

	judgeID, err := s.drawJudge(ctx, event.SquadID, callerID)
	if err != nil {
		return nil, err
	}
	if judgeID == nil {
		return nil, ErrNoEligibleJudge
	}
	return s.setJudge(ctx, event, *judgeID)
}

func (s *LifecycleService) setJudge(ctx context.Context, event *models.DailyEvent, judgeID uuid.UUID) (*models.DailyEvent, error) {
	eventID := event.ID
	now := s.clock.Now()
	ok, err := s.repo.SetEventJudge(ctx, eventID, judgeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to assign judge: %w", err)
	}
	if !ok {
		current, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if _, err := checkJudge(current, judgeID); err != nil {
			return nil, err
		}
		return current, nil
	}

	event.JudgeID = &judgeID
	event.UpdatedAt = now
	s.logger.InfoContext(ctx, "judge assigned", "event_id", eventID, "squad_id", event.SquadID, "user_id", judgeID)
	return event, nil
}

// checkJudge reports done when judgeID is already the event judge.
func checkJudge(event *models.DailyEvent, judgeID uuid.UUID) (bool, error) {
	if event.JudgeID != nil {
		if *event.JudgeID == judgeID {
			return true, nil
		}
		return false, ErrJudgeAlreadyAssigned
	}
	if event.Status == models.EventStatusFinalized {
		return false, fmt.Errorf("%w: event is finalized", ErrInvalidTransition)
	}
	return false, nil
}

func (s *LifecycleService) requireMember(ctx context.Context, squadID, userID uuid.UUID) error {
	member, err := s.roster.IsMember(ctx, squadID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotSquadMember
	}
	return nil
}

func (s *LifecycleService) loadEvent(ctx context.Context, eventID uuid.UUID) (*models.DailyEvent, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}
