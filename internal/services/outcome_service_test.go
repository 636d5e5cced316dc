package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daily-squad/internal/models"
	"daily-squad/internal/notify"
	"daily-squad/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeStampsOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	squad, event, outcome := h.finalized(t, 4)

	assert.Equal(t, event.ID, outcome.EventID)
	assert.Equal(t, squad.Members[0], outcome.FinalizedBy)
	assert.JSONEq(t, string(samplePayload), string(outcome.Payload))
	assert.True(t, outcome.FinalizedAt.Equal(baseTime))
	assert.True(t, outcome.Deadline.Equal(baseTime.Add(time.Hour)))
	assert.False(t, outcome.Overturned)
	assert.Equal(t, models.OutcomeResolutionPending, outcome.Resolution)
	assert.True(t, outcome.WindowOpen)
	assert.Equal(t, int64(4), outcome.SquadSize)
	assert.Equal(t, "2", outcome.Threshold)

	stored, err := h.repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusFinalized, stored.Status)

	assert.Equal(t, []notify.Kind{notify.KindFinalized}, h.hook.kinds())
	assert.Equal(t, 1.0, promCounter(t, h.metrics.OutcomesFinalized))
}

func TestFinalizeRequiresTheJudge(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	squad := testutil.SeedSquad(t, h.db, 3)
	judge := squad.Members[0]

	event := testutil.SeedEvent(t, h.db, squad.Squad.ID, &judge, models.EventStatusClosed, baseTime)
	_, err := h.svc.Outcomes.Finalize(ctx, event.ID, squad.Members[1], samplePayload)
	assert.ErrorIs(t, err, ErrNotJudge)

	other := testutil.SeedSquad(t, h.db, 2)
	unjudged := testutil.SeedEvent(t, h.db, other.Squad.ID, nil, models.EventStatusClosed, baseTime)
	_, err = h.svc.Outcomes.Finalize(ctx, unjudged.ID, other.Members[0], samplePayload)
	assert.ErrorIs(t, err, ErrJudgeNotAssigned)

	_, err = h.svc.Outcomes.Finalize(ctx, uuid.New(), judge, samplePayload)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = h.svc.Outcomes.Finalize(ctx, event.ID, judge, []byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestFinalizeOpenEventBeforeClosesAt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	squad := testutil.SeedSquad(t, h.db, 3)
	judge := squad.Members[0]

	event, _, err := h.svc.Lifecycle.CreateDailyEvent(ctx, squad.Squad.ID, &models.CreateEventRequest{
		Date:      "2026-10-18",
		EventType: models.EventTypeReactionTap,
		OpensAt:   baseTime.Add(-time.Hour),
		ClosesAt:  baseTime.Add(time.Hour),
		JudgeID:   &judge,
	})
	require.NoError(t, err)

	_, err = h.svc.Outcomes.Finalize(ctx, event.ID, judge, samplePayload)
	assert.ErrorIs(t, err, ErrEventNotClosed)

	stored, err := h.repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOpen, stored.Status)
}

func TestFinalizeClosesAnOverdueOpenEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	squad := testutil.SeedSquad(t, h.db, 3)
	judge := squad.Members[0]
	event := testutil.SeedEvent(t, h.db, squad.Squad.ID, &judge, models.EventStatusOpen, baseTime)

	_, err := h.svc.Outcomes.Finalize(ctx, event.ID, judge, samplePayload)
	require.NoError(t, err)

	stored, err := h.repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusFinalized, stored.Status)
}

func TestFinalizeIsExclusive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	squad := testutil.SeedSquad(t, h.db, 4)
	judge := squad.Members[0]
	event := testutil.SeedEvent(t, h.db, squad.Squad.ID, &judge, models.EventStatusClosed, baseTime)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Outcomes.Finalize(ctx, event.ID, judge, samplePayload)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyFinalized):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)

	var outcomes int64
	require.NoError(t, h.db.Model(&models.EventOutcome{}).Where("event_id = ?", event.ID).Count(&outcomes).Error)
	assert.Equal(t, int64(1), outcomes)
	assert.Len(t, h.hook.kinds(), 1)
}

func TestNotificationFailureDoesNotFailFinalize(t *testing.T) {
	h := newHarness(t)
	h.hook.err = errors.New("push gateway down")

	_, _, outcome := h.finalized(t, 3)

	assert.False(t, outcome.Overturned)
	assert.Equal(t, 1.0, promCounter(t, h.metrics.NotifyFailures))
}

func TestGetOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, event, _ := h.finalized(t, 5)
	h.clock.Advance(10 * time.Minute)

	got, err := h.svc.Outcomes.GetOutcome(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ChallengeCount)
	assert.Equal(t, int64(5), got.SquadSize)
	assert.Equal(t, "2.5", got.Threshold)
	assert.True(t, got.WindowOpen)

	squad := testutil.SeedSquad(t, h.db, 2)
	pending := testutil.SeedEvent(t, h.db, squad.Squad.ID, &squad.Members[0], models.EventStatusClosed, baseTime)
	_, err = h.svc.Outcomes.GetOutcome(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrOutcomeNotFound)

	_, err = h.svc.Outcomes.GetOutcome(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestReadAfterDeadlineApproves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	squad, event, _ := h.finalized(t, 3)
	h.clock.Advance(time.Hour + time.Second)

	got, err := h.svc.Outcomes.GetOutcome(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeResolutionApproved, got.Resolution)
	assert.False(t, got.WindowOpen)

	_, err = h.svc.Outcomes.GetOutcome(ctx, event.ID)
	require.NoError(t, err)

	score := h.judgeScore(t, squad.Squad.ID, squad.Members[0])
	assert.Equal(t, int64(10), score.Points)
	assert.Equal(t, int64(1), h.awardCount(t))
	assert.Equal(t, []notify.Kind{notify.KindFinalized, notify.KindApproved}, h.hook.kinds())
}

func TestSettleWaitsForTheDeadline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, event, _ := h.finalized(t, 3)
	outcome, err := h.repo.GetOutcomeByEventID(ctx, event.ID)
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	settled, err := h.svc.Outcomes.Settle(ctx, outcome)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeResolutionPending, settled.Resolution, "the deadline instant is still inside the window")

	h.clock.Advance(time.Second)
	settled, err = h.svc.Outcomes.Settle(ctx, outcome)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeResolutionApproved, settled.Resolution)
}
