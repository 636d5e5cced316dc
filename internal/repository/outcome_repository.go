package repository

import (
	"context"
	"time"

	"daily-squad/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CreateOutcome inserts the event outcome. The unique event_id makes this the
// finalize compare-and-set: a second insert for the same event returns ErrDuplicate.
func (r *Repository) CreateOutcome(ctx context.Context, outcome *models.EventOutcome) error {
	return translate(r.db.WithContext(ctx).Create(outcome).Error)
}

// GetOutcomeByEventID retrieves the outcome of an event
func (r *Repository) GetOutcomeByEventID(ctx context.Context, eventID uuid.UUID) (*models.EventOutcome, error) {
	var outcome models.EventOutcome
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&outcome).Error
	if err != nil {
		return nil, translate(err)
	}
	return &outcome, nil
}

// GetOutcomeByID retrieves an outcome by ID
func (r *Repository) GetOutcomeByID(ctx context.Context, outcomeID uuid.UUID) (*models.EventOutcome, error) {
	var outcome models.EventOutcome
	err := r.db.WithContext(ctx).Where("id = ?", outcomeID).First(&outcome).Error
	if err != nil {
		return nil, translate(err)
	}
	return &outcome, nil
}

// LockOutcome re-reads an outcome inside a transaction, holding a row lock
// where the dialect supports it so quorum evaluations on one outcome serialize.
func (r *Repository) LockOutcome(ctx context.Context, outcomeID uuid.UUID) (*models.EventOutcome, error) {
	q := r.db.WithContext(ctx)
	if r.supportsRowLocks() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var outcome models.EventOutcome
	if err := q.Where("id = ?", outcomeID).First(&outcome).Error; err != nil {
		return nil, translate(err)
	}
	return &outcome, nil
}

// MarkOutcomeOverturned flips overturned false -> true. It reports false when
// the outcome was already overturned or already resolved.
func (r *Repository) MarkOutcomeOverturned(ctx context.Context, outcomeID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.EventOutcome{}).
		Where("id = ? AND overturned = ? AND resolution = ?", outcomeID, false, models.OutcomeResolutionPending).
		Updates(map[string]interface{}{
			"overturned":    true,
			"overturned_at": now,
			"resolution":    models.OutcomeResolutionOverturned,
			"resolved_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkOutcomeApproved settles a pending, non-overturned outcome as approved
func (r *Repository) MarkOutcomeApproved(ctx context.Context, outcomeID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.EventOutcome{}).
		Where("id = ? AND overturned = ? AND resolution = ?", outcomeID, false, models.OutcomeResolutionPending).
		Updates(map[string]interface{}{
			"resolution":  models.OutcomeResolutionApproved,
			"resolved_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListExpiredPendingOutcomes retrieves unresolved outcomes finalized before cutoff
func (r *Repository) ListExpiredPendingOutcomes(ctx context.Context, cutoff time.Time, limit int) ([]*models.EventOutcome, error) {
	var outcomes []*models.EventOutcome
	err := r.db.WithContext(ctx).
		Where("resolution = ? AND finalized_at < ?", models.OutcomeResolutionPending, cutoff).
		Order("finalized_at ASC").
		Limit(limit).
		Find(&outcomes).Error
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// CreateChallenge inserts a challenge. The unique (event_id, user_id) pair
// makes a repeated challenge from the same user return ErrDuplicate.
func (r *Repository) CreateChallenge(ctx context.Context, challenge *models.OutcomeChallenge) error {
	return translate(r.db.WithContext(ctx).Create(challenge).Error)
}

// CountChallenges counts the challenges against an event's outcome
func (r *Repository) CountChallenges(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OutcomeChallenge{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// ListChallenges retrieves the challenges of an event, oldest first
func (r *Repository) ListChallenges(ctx context.Context, eventID uuid.UUID) ([]*models.OutcomeChallenge, error) {
	var challenges []*models.OutcomeChallenge
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&challenges).Error
	if err != nil {
		return nil, err
	}
	return challenges, nil
}
