package models

import (
	"time"

	"github.com/google/uuid"
)

type AwardKind string

const (
	AwardKindApproved   AwardKind = "approved"
	AwardKindOverturned AwardKind = "overturned"
)

// JudgeAward records the judge point delta of one outcome.
// The unique outcome_id makes the side effect apply exactly once.
type JudgeAward struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OutcomeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"outcome_id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	SquadID   uuid.UUID `gorm:"type:uuid;not null;index" json:"squad_id"`
	JudgeID   uuid.UUID `gorm:"type:uuid;not null;index" json:"judge_id"`
	Kind      AwardKind `gorm:"size:20;not null" json:"kind"`
	Delta     int64     `gorm:"not null" json:"delta"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (JudgeAward) TableName() string {
	return "judge_awards"
}

// JudgeScore is the running judge point total of a member in a squad.
type JudgeScore struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SquadID   uuid.UUID `gorm:"type:uuid;not null;index:ux_squad_judge,unique" json:"squad_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:ux_squad_judge,unique" json:"user_id"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	Approved  int64     `gorm:"not null;default:0" json:"approved"`
	Overturns int64     `gorm:"not null;default:0" json:"overturns"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (JudgeScore) TableName() string {
	return "judge_scores"
}
