package models

import (
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

// Squad is a small fixed group of users competing together.
type Squad struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Timezone  string    `gorm:"size:64;not null;default:UTC" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

func (Squad) TableName() string {
	return "squads"
}

// Location resolves the squad timezone, falling back to UTC.
func (s *Squad) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SquadMember is one roster entry. The roster is read live, never snapshotted.
type SquadMember struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SquadID  uuid.UUID `gorm:"type:uuid;not null;index:ux_squad_member,unique" json:"squad_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:ux_squad_member,unique;index" json:"user_id"`
	Nickname string    `gorm:"size:255" json:"nickname"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

func (SquadMember) TableName() string {
	return "squad_members"
}

// CreateSquadRequest represents a request to create a squad
type CreateSquadRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Nickname string `json:"nickname"`
}

// JoinSquadRequest represents a request to join a squad
type JoinSquadRequest struct {
	Nickname string `json:"nickname"`
}
