package repository

import (
	"context"
	"time"

	"daily-squad/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAwardIfAbsent records the judge award of an outcome. It reports false
// when the outcome already has one, which callers treat as "already applied".
func (r *Repository) CreateAwardIfAbsent(ctx context.Context, award *models.JudgeAward) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outcome_id"}},
		DoNothing: true,
	}).Create(award)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GetAwardByOutcomeID retrieves the judge award of an outcome
func (r *Repository) GetAwardByOutcomeID(ctx context.Context, outcomeID uuid.UUID) (*models.JudgeAward, error) {
	var award models.JudgeAward
	err := r.db.WithContext(ctx).Where("outcome_id = ?", outcomeID).First(&award).Error
	if err != nil {
		return nil, translate(err)
	}
	return &award, nil
}

// IncrementJudgeScore adds delta to the judge's running total
func (r *Repository) IncrementJudgeScore(
	ctx context.Context,
	squadID uuid.UUID,
	userID uuid.UUID,
	kind models.AwardKind,
	delta int64,
	now time.Time,
) error {
	var approvedIncr, overturnIncr int64
	if kind == models.AwardKindApproved {
		approvedIncr = 1
	} else {
		overturnIncr = 1
	}

	// Prepare the upsert struct with initial values (for the INSERT case)
	initial := models.JudgeScore{
		ID:        uuid.New(),
		SquadID:   squadID,
		UserID:    userID,
		Points:    delta,
		Approved:  approvedIncr,
		Overturns: overturnIncr,
		UpdatedAt: now,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "squad_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("judge_scores.points + ?", delta),
			"approved":   gorm.Expr("judge_scores.approved + ?", approvedIncr),
			"overturns":  gorm.Expr("judge_scores.overturns + ?", overturnIncr),
			"updated_at": now,
		}),
	}).Create(&initial).Error
}

// GetJudgeScore retrieves a member's judge total in a squad
func (r *Repository) GetJudgeScore(ctx context.Context, squadID, userID uuid.UUID) (*models.JudgeScore, error) {
	var score models.JudgeScore
	err := r.db.WithContext(ctx).
		Where("squad_id = ? AND user_id = ?", squadID, userID).
		First(&score).Error
	if err != nil {
		return nil, translate(err)
	}
	return &score, nil
}

// ListJudgeScores retrieves a squad's judge totals, highest first
func (r *Repository) ListJudgeScores(ctx context.Context, squadID uuid.UUID) ([]*models.JudgeScore, error) {
	var scores []*models.JudgeScore
	err := r.db.WithContext(ctx).
		Where("squad_id = ?", squadID).
		Order("points DESC").
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}
