package services

import (
	"log/slog"
	"time"

	"daily-squad/internal/config"
	"daily-squad/internal/deadline"
	"daily-squad/internal/notify"
	"daily-squad/internal/repository"
)

// Options carries the collaborators shared by every service.
type Options struct {
	Clock           deadline.Clock
	Logger          *slog.Logger
	Metrics         *Metrics
	Notifier        notify.Notifier
	Window          time.Duration
	ApprovalPoints  int64
	OverturnPenalty int64
	Schedule        Schedule
}

// OptionsFromConfig maps application configuration onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Window:          cfg.Dispute.ChallengeWindow,
		ApprovalPoints:  cfg.Dispute.JudgeApprovalPoints,
		OverturnPenalty: cfg.Dispute.JudgeOverturnPenalty,
		Schedule: Schedule{
			OpenOffset: cfg.Schedule.EventOpenOffset,
			Duration:   cfg.Schedule.EventDuration,
		},
	}
}

// Services is the wired set of domain services.
type Services struct {
	Squads     *SquadService
	Lifecycle  *LifecycleService
	Outcomes   *OutcomeService
	Challenges *ChallengeService
	Scoring    *ScoringService
}

func New(repo *repository.Repository, opts Options) *Services {
	if opts.Clock == nil {
		opts.Clock = deadline.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	squads := NewSquadService(repo, opts.Clock, opts.Logger)
	scoring := NewScoringService(repo, opts.Metrics, opts.Logger, opts.ApprovalPoints, opts.OverturnPenalty)
	lifecycle := NewLifecycleService(repo, squads, opts.Clock, opts.Metrics, opts.Logger, opts.Schedule)
	outcomes := NewOutcomeService(repo, lifecycle, squads, scoring, opts.Notifier, opts.Clock, opts.Metrics, opts.Logger, opts.Window)
	challenges := NewChallengeService(repo, outcomes, squads, opts.Clock, opts.Metrics, opts.Logger)

	return &Services{
		Squads:     squads,
		Lifecycle:  lifecycle,
		Outcomes:   outcomes,
		Challenges: challenges,
		Scoring:    scoring,
	}
}
