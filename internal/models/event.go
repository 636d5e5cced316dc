package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypePredictionPoll EventType = "prediction_poll"
	EventTypeLiveCapture    EventType = "live_capture"
	EventTypeReactionTap    EventType = "reaction_tap"
)

// EventTypes lists every supported event type in rotation order.
var EventTypes = []EventType{
	EventTypePredictionPoll,
	EventTypeLiveCapture,
	EventTypeReactionTap,
}

func (t EventType) Valid() bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusOpen      EventStatus = "open"
	EventStatusClosed    EventStatus = "closed"
	EventStatusFinalized EventStatus = "finalized"
)

// Rank orders statuses along the only allowed path
// scheduled -> open -> closed -> finalized. Unknown statuses rank -1.
func (s EventStatus) Rank() int {
	switch s {
	case EventStatusScheduled:
		return 0
	case EventStatusOpen:
		return 1
	case EventStatusClosed:
		return 2
	case EventStatusFinalized:
		return 3
	}
	return -1
}

// DateLayout is the layout of DailyEvent.Date.
const DateLayout = "2006-01-02"

// DailyEvent is a squad's single event for one calendar date.
type DailyEvent struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SquadID   uuid.UUID   `gorm:"type:uuid;not null;index:ux_squad_date,unique" json:"squad_id"`
	Date      string      `gorm:"size:10;not null;index:ux_squad_date,unique" json:"date"`
	EventType EventType   `gorm:"size:32;not null" json:"event_type"`
	OpensAt   time.Time   `gorm:"not null;index" json:"opens_at"`
	ClosesAt  time.Time   `gorm:"not null;index" json:"closes_at"`
	JudgeID   *uuid.UUID  `gorm:"type:uuid;index" json:"judge_id"`
	Status    EventStatus `gorm:"size:20;not null;default:scheduled;index" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (DailyEvent) TableName() string {
	return "daily_events"
}

// CreateEventRequest represents a request to schedule a squad's event for a date
type CreateEventRequest struct {
	Date      string     `json:"date" binding:"required"`
	EventType EventType  `json:"event_type" binding:"required"`
	OpensAt   time.Time  `json:"opens_at" binding:"required"`
	ClosesAt  time.Time  `json:"closes_at" binding:"required"`
	JudgeID   *uuid.UUID `json:"judge_id"`
}

// EventResponse is the countdown view of an event
type EventResponse struct {
	Event            *DailyEvent `json:"event"`
	ServerTime       time.Time   `json:"server_time"`
	PollAfterSeconds int         `json:"poll_after_seconds"`
}
