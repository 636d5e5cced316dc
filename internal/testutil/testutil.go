// Package testutil builds throwaway stores and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"daily-squad/internal/database"
	"daily-squad/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
// A single connection makes concurrent callers serialize like writers on a
// real store, and keeps the in-memory database alive for the whole test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// Squad is a seeded squad with its members in join order.
type Squad struct {
	Squad   *models.Squad
	Members []uuid.UUID
}

// SeedSquad creates a squad with size members.
func SeedSquad(t testing.TB, db *gorm.DB, size int) Squad {
	t.Helper()

	squad := &models.Squad{ID: uuid.New(), Name: "Test Squad", Timezone: "UTC", CreatedAt: time.Now().UTC()}
	if err := db.Create(squad).Error; err != nil {
		t.Fatalf("failed to create squad: %v", err)
	}

	members := make([]uuid.UUID, 0, size)
	for i := 0; i < size; i++ {
		member := &models.SquadMember{
			ID:       uuid.New(),
			SquadID:  squad.ID,
			UserID:   uuid.New(),
			Nickname: fmt.Sprintf("member-%d", i),
			JoinedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(member).Error; err != nil {
			t.Fatalf("failed to create member: %v", err)
		}
		members = append(members, member.UserID)
	}

	return Squad{Squad: squad, Members: members}
}

// SeedEvent creates an event for the squad with the given status. The event
// opened two hours before now and closed one hour before now.
func SeedEvent(t testing.TB, db *gorm.DB, squadID uuid.UUID, judgeID *uuid.UUID, status models.EventStatus, now time.Time) *models.DailyEvent {
	t.Helper()

	event := &models.DailyEvent{
		ID:        uuid.New(),
		SquadID:   squadID,
		Date:      now.Format(models.DateLayout),
		EventType: models.EventTypePredictionPoll,
		OpensAt:   now.Add(-2 * time.Hour),
		ClosesAt:  now.Add(-time.Hour),
		JudgeID:   judgeID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(context.Background()).Create(event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
