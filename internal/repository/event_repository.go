package repository

import (
	"context"
	"time"

	"daily-squad/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CreateEventIfAbsent inserts the event unless the squad already has one for
// that date. It reports whether this call created the row.
func (r *Repository) CreateEventIfAbsent(ctx context.Context, event *models.DailyEvent) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "squad_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GetEventByID retrieves an event by ID
func (r *Repository) GetEventByID(ctx context.Context, eventID uuid.UUID) (*models.DailyEvent, error) {
	var event models.DailyEvent
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// GetEventBySquadDate retrieves a squad's event for a calendar date
func (r *Repository) GetEventBySquadDate(ctx context.Context, squadID uuid.UUID, date string) (*models.DailyEvent, error) {
	var event models.DailyEvent
	err := r.db.WithContext(ctx).
		Where("squad_id = ? AND date = ?", squadID, date).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// TransitionEventStatus moves an event from one status to the next as a
// compare-and-set. It reports false when the event was not in from.
func (r *Repository) TransitionEventStatus(
	ctx context.Context,
	eventID uuid.UUID,
	from models.EventStatus,
	to models.EventStatus,
	now time.Time,
) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.DailyEvent{}).
		Where("id = ? AND status = ?", eventID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetEventJudge assigns the judge if none is set and the event is not finalized
func (r *Repository) SetEventJudge(ctx context.Context, eventID, judgeID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.DailyEvent{}).
		Where("id = ? AND judge_id IS NULL AND status <> ?", eventID, models.EventStatusFinalized).
		Updates(map[string]interface{}{
			"judge_id":   judgeID,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListEventsDueToOpen retrieves scheduled events whose opens_at has passed
func (r *Repository) ListEventsDueToOpen(ctx context.Context, now time.Time, limit int) ([]*models.DailyEvent, error) {
	var events []*models.DailyEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND opens_at <= ?", models.EventStatusScheduled, now).
		Order("opens_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListEventsDueToClose retrieves open events whose closes_at has passed
func (r *Repository) ListEventsDueToClose(ctx context.Context, now time.Time, limit int) ([]*models.DailyEvent, error) {
	var events []*models.DailyEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND closes_at <= ?", models.EventStatusOpen, now).
		Order("closes_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
