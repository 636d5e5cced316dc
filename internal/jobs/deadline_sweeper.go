package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"daily-squad/internal/deadline"
)

// sweepBatchSize bounds how many outcomes one sweep pass settles.
const sweepBatchSize = 100

// OutcomeSettler approves outcomes whose challenge window has run out.
type OutcomeSettler interface {
	SettleExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// DeadlineSweeper periodically settles outcomes whose challenge window
// elapsed without an overturn, so approval does not wait for the next read.
type DeadlineSweeper struct {
	settler  OutcomeSettler
	clock    deadline.Clock
	logger   *slog.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDeadlineSweeper creates a new deadline sweep job
func NewDeadlineSweeper(settler OutcomeSettler, clock deadline.Clock, logger *slog.Logger, interval time.Duration) *DeadlineSweeper {
	return &DeadlineSweeper{
		settler:  settler,
		clock:    clock,
		logger:   logger.With("job", "deadline_sweeper"),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called
func (ds *DeadlineSweeper) Start() {
	ds.logger.Info("starting deadline sweeper", "interval", ds.interval)

	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()

		ticker := time.NewTicker(ds.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ds.sweep()
			case <-ds.stopChan:
				ds.logger.Info("stopping deadline sweeper")
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for a pass in flight to finish. It is
// safe to call more than once.
func (ds *DeadlineSweeper) Stop() {
	ds.stopOnce.Do(func() { close(ds.stopChan) })
	ds.wg.Wait()
}

// RunOnce settles every expired outcome as of now, draining full batches.
func (ds *DeadlineSweeper) RunOnce(ctx context.Context) (int, error) {
	now := ds.clock.Now()
	total := 0
	for {
		settled, err := ds.settler.SettleExpired(ctx, now, sweepBatchSize)
		total += settled
		if err != nil {
			return total, err
		}
		if settled < sweepBatchSize {
			return total, nil
		}
	}
}

func (ds *DeadlineSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), ds.interval)
	defer cancel()

	settled, err := ds.RunOnce(ctx)
	if err != nil {
		ds.logger.Error("deadline sweep failed", "settled", settled, "error", err)
		return
	}
	if settled > 0 {
		ds.logger.Info("settled expired outcomes", "count", settled)
	}
}
