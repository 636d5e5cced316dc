// Package notify delivers outcome notifications to interested parties.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindFinalized  Kind = "outcome.finalized"
	KindOverturned Kind = "outcome.overturned"
	KindApproved   Kind = "outcome.approved"
)

// Notification describes a state change of an event outcome.
type Notification struct {
	Kind           Kind      `json:"kind"`
	EventID        uuid.UUID `json:"event_id"`
	OutcomeID      uuid.UUID `json:"outcome_id"`
	SquadID        uuid.UUID `json:"squad_id"`
	JudgeID        uuid.UUID `json:"judge_id"`
	ChallengeCount int64     `json:"challenge_count"`
	SquadSize      int64     `json:"squad_size"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier receives notifications after the state change has committed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// HookFunc adapts a plain callback to Notifier.
type HookFunc func(ctx context.Context, n Notification) error

func (f HookFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }

// Fanout delivers to every notifier, even when an earlier one fails.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
