package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"daily-squad/internal/deadline"
)

// EventAdvancer creates the daily events and moves them along their schedule.
type EventAdvancer interface {
	EnsureDailyEvents(ctx context.Context, now time.Time) (int, error)
	AdvanceDueEvents(ctx context.Context, now time.Time) (opened, closed int, err error)
}

// LifecycleJob rolls squads over to their next daily event and applies due
// open/close transitions.
type LifecycleJob struct {
	advancer EventAdvancer
	clock    deadline.Clock
	logger   *slog.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewLifecycleJob(advancer EventAdvancer, clock deadline.Clock, logger *slog.Logger, interval time.Duration) *LifecycleJob {
	return &LifecycleJob{
		advancer: advancer,
		clock:    clock,
		logger:   logger.With("job", "lifecycle"),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic lifecycle job in the background
func (j *LifecycleJob) Start() {
	j.logger.Info("starting lifecycle job", "interval", j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		// Run immediately on start
		j.RunOnce(context.Background())

		// Then run periodically
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.RunOnce(context.Background())
			case <-j.stopChan:
				j.logger.Info("stopping lifecycle job")
				return
			}
		}
	}()
}

// Stop ends the job and waits for a pass in flight to finish
func (j *LifecycleJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
	j.wg.Wait()
}

// RunOnce performs one rollover and advance pass. Failures are logged and
// retried on the next tick.
func (j *LifecycleJob) RunOnce(ctx context.Context) {
	now := j.clock.Now()

	created, err := j.advancer.EnsureDailyEvents(ctx, now)
	if err != nil {
		j.logger.Error("daily rollover error", "error", err)
	}
	if created > 0 {
		j.logger.Info("daily events created", "count", created)
	}

	opened, closed, err := j.advancer.AdvanceDueEvents(ctx, now)
	if err != nil {
		j.logger.Error("advance error", "error", err)
	}
	if opened > 0 || closed > 0 {
		j.logger.Info("events advanced", "opened", opened, "closed", closed)
	}
}
