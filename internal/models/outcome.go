package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutcomeResolution string

const (
	OutcomeResolutionPending    OutcomeResolution = "pending"
	OutcomeResolutionApproved   OutcomeResolution = "approved"
	OutcomeResolutionOverturned OutcomeResolution = "overturned"
)

// EventOutcome is the single authoritative result of an event.
// Overturned moves false -> true at most once.
type EventOutcome struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`
	SquadID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"squad_id"`
	FinalizedBy  uuid.UUID         `gorm:"type:uuid;not null;index" json:"finalized_by"`
	Payload      string            `gorm:"type:text;not null" json:"-"`
	FinalizedAt  time.Time         `gorm:"not null;index" json:"finalized_at"`
	Overturned   bool              `gorm:"not null;default:false" json:"overturned"`
	OverturnedAt *time.Time        `json:"overturned_at"`
	Resolution   OutcomeResolution `gorm:"size:20;not null;default:pending;index" json:"resolution"`
	ResolvedAt   *time.Time        `json:"resolved_at"`
}

func (EventOutcome) TableName() string {
	return "event_outcomes"
}

// Deadline is the end of the challenge window, derived on every read.
func (o *EventOutcome) Deadline(window time.Duration) time.Time {
	return o.FinalizedAt.Add(window)
}

// OutcomeChallenge is one member's objection. At most one per (event, user).
type OutcomeChallenge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index:ux_event_user,unique" json:"event_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:ux_event_user,unique" json:"user_id"`
	OutcomeID uuid.UUID `gorm:"type:uuid;not null;index" json:"outcome_id"`
	Reason    string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (OutcomeChallenge) TableName() string {
	return "outcome_challenges"
}

// FinalizeOutcomeRequest represents the judge's finalize call
type FinalizeOutcomeRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// ChallengeRequest represents a member's challenge
type ChallengeRequest struct {
	Reason string `json:"reason"`
}

// OutcomeResponse is an outcome together with its live dispute state
type OutcomeResponse struct {
	ID             uuid.UUID         `json:"id"`
	EventID        uuid.UUID         `json:"event_id"`
	SquadID        uuid.UUID         `json:"squad_id"`
	FinalizedBy    uuid.UUID         `json:"finalized_by"`
	Payload        json.RawMessage   `json:"payload"`
	FinalizedAt    time.Time         `json:"finalized_at"`
	Overturned     bool              `json:"overturned"`
	OverturnedAt   *time.Time        `json:"overturned_at"`
	Resolution     OutcomeResolution `json:"resolution"`
	ResolvedAt     *time.Time        `json:"resolved_at"`
	ChallengeCount int64             `json:"challenge_count"`
	SquadSize      int64             `json:"squad_size"`
	Threshold      string            `json:"threshold"`
	Deadline       time.Time         `json:"deadline"`
	WindowOpen     bool              `json:"window_open"`
}

// ChallengeResponse is returned after a successful challenge
type ChallengeResponse struct {
	Challenge      *OutcomeChallenge `json:"challenge"`
	ChallengeCount int64             `json:"challenge_count"`
	SquadSize      int64             `json:"squad_size"`
	Threshold      string            `json:"threshold"`
	Overturned     bool              `json:"overturned"`
}
