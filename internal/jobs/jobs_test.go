package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daily-squad/internal/models"
	"daily-squad/internal/repository"
	"daily-squad/internal/services"
	"daily-squad/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

type fakeSettler struct {
	mu      sync.Mutex
	batches []int
	calls   int
	err     error
}

func (f *fakeSettler) SettleExpired(_ context.Context, _ time.Time, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > len(f.batches) {
		return 0, f.err
	}
	n := f.batches[f.calls-1]
	if n > limit {
		n = limit
	}
	return n, nil
}

func (f *fakeSettler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceDrainsFullBatches(t *testing.T) {
	settler := &fakeSettler{batches: []int{sweepBatchSize, sweepBatchSize, 7}}
	sweeper := NewDeadlineSweeper(settler, testutil.NewClock(baseTime), testutil.Logger(), time.Minute)

	settled, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*sweepBatchSize+7, settled)
	assert.Equal(t, 3, settler.callCount())
}

func TestRunOnceReportsErrors(t *testing.T) {
	boom := errors.New("store unavailable")
	settler := &fakeSettler{err: boom}
	sweeper := NewDeadlineSweeper(settler, testutil.NewClock(baseTime), testutil.Logger(), time.Minute)

	_, err := sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSweeperTicksUntilStopped(t *testing.T) {
	settler := &fakeSettler{}
	sweeper := NewDeadlineSweeper(settler, testutil.NewClock(baseTime), testutil.Logger(), 5*time.Millisecond)

	sweeper.Start()
	require.Eventually(t, func() bool { return settler.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()

	calls := settler.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, settler.callCount(), "no pass runs after Stop returns")
}

// gatedSettler blocks inside SettleExpired until released.
type gatedSettler struct {
	entered  chan struct{}
	release  chan struct{}
	finished chan struct{}
	once     sync.Once
}

func newGatedSettler() *gatedSettler {
	return &gatedSettler{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		finished: make(chan struct{}),
	}
}

func (g *gatedSettler) SettleExpired(context.Context, time.Time, int) (int, error) {
	first := false
	g.once.Do(func() { first = true })
	if !first {
		return 0, nil
	}
	close(g.entered)
	<-g.release
	close(g.finished)
	return 0, nil
}

func TestSweeperStopWaitsForPassInFlight(t *testing.T) {
	settler := newGatedSettler()
	sweeper := NewDeadlineSweeper(settler, testutil.NewClock(baseTime), testutil.Logger(), 5*time.Millisecond)

	sweeper.Start()
	select {
	case <-settler.entered:
	case <-time.After(time.Second):
		t.Fatal("sweep pass never started")
	}

	stopped := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a pass was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(settler.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	select {
	case <-settler.finished:
	default:
		t.Fatal("Stop returned before the pass finished")
	}
}

func TestSweeperApprovesExpiredOutcome(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	clock := testutil.NewClock(baseTime)
	svc := services.New(repo, services.Options{
		Clock:           clock,
		Logger:          testutil.Logger(),
		Window:          time.Hour,
		ApprovalPoints:  10,
		OverturnPenalty: 10,
	})
	ctx := context.Background()

	squad := testutil.SeedSquad(t, db, 5)
	judge := squad.Members[0]
	event := testutil.SeedEvent(t, db, squad.Squad.ID, &judge, models.EventStatusClosed, baseTime)
	_, err := svc.Outcomes.Finalize(ctx, event.ID, judge, []byte(`{"winner":"bob"}`))
	require.NoError(t, err)
	for _, member := range squad.Members[1:3] {
		_, err := svc.Challenges.Challenge(ctx, event.ID, member, "")
		require.NoError(t, err)
	}

	sweeper := NewDeadlineSweeper(svc.Outcomes, clock, testutil.Logger(), time.Minute)

	settled, err := sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled, "window still open")

	clock.Advance(time.Hour + time.Second)
	settled, err = sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	outcome, err := repo.GetOutcomeByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Overturned)
	assert.Equal(t, models.OutcomeResolutionApproved, outcome.Resolution)

	score, err := repo.GetJudgeScore(ctx, squad.Squad.ID, judge)
	require.NoError(t, err)
	assert.Equal(t, int64(10), score.Points)

	settled, err = sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, settled)
}

type fakeAdvancer struct {
	mu      sync.Mutex
	ensured int
	advance int
	err     error
}

func (f *fakeAdvancer) EnsureDailyEvents(context.Context, time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return 1, f.err
}

func (f *fakeAdvancer) AdvanceDueEvents(context.Context, time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance++
	return 1, 1, nil
}

func (f *fakeAdvancer) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensured, f.advance
}

func TestLifecycleJobAdvancesEvenWhenRolloverFails(t *testing.T) {
	advancer := &fakeAdvancer{err: errors.New("one squad failed")}
	job := NewLifecycleJob(advancer, testutil.NewClock(baseTime), testutil.Logger(), time.Hour)

	job.RunOnce(context.Background())

	ensured, advanced := advancer.counts()
	assert.Equal(t, 1, ensured)
	assert.Equal(t, 1, advanced)
}

func TestLifecycleJobRunsOnStartAndStops(t *testing.T) {
	advancer := &fakeAdvancer{}
	job := NewLifecycleJob(advancer, testutil.NewClock(baseTime), testutil.Logger(), time.Hour)

	job.Start()
	require.Eventually(t, func() bool {
		ensured, _ := advancer.counts()
		return ensured == 1
	}, time.Second, 5*time.Millisecond)
	job.Stop()
	job.Stop()
}

// gatedAdvancer blocks in its first rollover until released.
type gatedAdvancer struct {
	fakeAdvancer
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAdvancer) EnsureDailyEvents(ctx context.Context, now time.Time) (int, error) {
	close(g.entered)
	<-g.release
	return g.fakeAdvancer.EnsureDailyEvents(ctx, now)
}

func TestLifecycleJobStopWaitsForPassInFlight(t *testing.T) {
	advancer := &gatedAdvancer{entered: make(chan struct{}), release: make(chan struct{})}
	job := NewLifecycleJob(advancer, testutil.NewClock(baseTime), testutil.Logger(), time.Hour)

	job.Start()
	select {
	case <-advancer.entered:
	case <-time.After(time.Second):
		t.Fatal("lifecycle pass never started")
	}

	stopped := make(chan struct{})
	go func() {
		job.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a pass was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(advancer.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("lifecycle job did not stop")
	}

	_, advanced := advancer.counts()
	assert.Equal(t, 1, advanced, "the pass in flight ran to completion")
}

func TestLifecycleJobWithServices(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	clock := testutil.NewClock(time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC))
	svc := services.New(repo, services.Options{
		Clock:    clock,
		Logger:   testutil.Logger(),
		Window:   time.Hour,
		Schedule: services.Schedule{OpenOffset: 18 * time.Hour, Duration: 2 * time.Hour},
	})
	squad := testutil.SeedSquad(t, db, 3)

	job := NewLifecycleJob(svc.Lifecycle, clock, testutil.Logger(), time.Minute)
	job.RunOnce(context.Background())

	event, err := repo.GetEventBySquadDate(context.Background(), squad.Squad.ID, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOpen, event.Status)

	clock.Advance(time.Hour)
	job.RunOnce(context.Background())

	event, err = repo.GetEventByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusClosed, event.Status)
}
