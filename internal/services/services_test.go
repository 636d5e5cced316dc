package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"daily-squad/internal/models"
	"daily-squad/internal/notify"
	"daily-squad/internal/repository"
	"daily-squad/internal/testutil"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

var samplePayload = json.RawMessage(`{"winner":"alice","votes":{"alice":3,"bob":1}}`)

type recorder struct {
	mu    sync.Mutex
	notes []notify.Notification
	err   error
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return r.err
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(r.notes))
	for _, n := range r.notes {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type harness struct {
	db      *gorm.DB
	repo    *repository.Repository
	clock   *testutil.Clock
	metrics *Metrics
	hook    *recorder
	svc     *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	clock := testutil.NewClock(baseTime)
	metrics := NewMetrics(prometheus.NewRegistry())
	hook := &recorder{}

	svc := New(repo, Options{
		Clock:           clock,
		Logger:          testutil.Logger(),
		Metrics:         metrics,
		Notifier:        hook,
		Window:          time.Hour,
		ApprovalPoints:  10,
		OverturnPenalty: 10,
		Schedule:        Schedule{OpenOffset: 18 * time.Hour, Duration: 2 * time.Hour},
	})

	return &harness{db: db, repo: repo, clock: clock, metrics: metrics, hook: hook, svc: svc}
}

// finalized seeds a squad of size members whose first member judged a
// closed event, and finalizes that event at the current clock.
func (h *harness) finalized(t *testing.T, size int) (testutil.Squad, *models.DailyEvent, *models.OutcomeResponse) {
	t.Helper()

	squad := testutil.SeedSquad(t, h.db, size)
	judge := squad.Members[0]
	event := testutil.SeedEvent(t, h.db, squad.Squad.ID, &judge, models.EventStatusClosed, h.clock.Now())

	outcome, err := h.svc.Outcomes.Finalize(context.Background(), event.ID, judge, samplePayload)
	require.NoError(t, err)
	return squad, event, outcome
}

func (h *harness) judgeScore(t *testing.T, squadID, judgeID uuid.UUID) *models.JudgeScore {
	t.Helper()
	score, err := h.repo.GetJudgeScore(context.Background(), squadID, judgeID)
	require.NoError(t, err)
	return score
}

func (h *harness) awardCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.JudgeAward{}).Count(&count).Error)
	return count
}

func promCounter(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	return promtestutil.ToFloat64(c)
}
