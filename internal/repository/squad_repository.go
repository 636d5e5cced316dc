package repository

import (
	"context"

	"daily-squad/internal/models"

	"github.com/google/uuid"
)

// CreateSquad creates a new squad
func (r *Repository) CreateSquad(ctx context.Context, squad *models.Squad) error {
	return translate(r.db.WithContext(ctx).Create(squad).Error)
}

// GetSquadByID retrieves a squad by ID
func (r *Repository) GetSquadByID(ctx context.Context, squadID uuid.UUID) (*models.Squad, error) {
	var squad models.Squad
	err := r.db.WithContext(ctx).Where("id = ?", squadID).First(&squad).Error
	if err != nil {
		return nil, translate(err)
	}
	return &squad, nil
}

// ListSquads retrieves every squad, oldest first
func (r *Repository) ListSquads(ctx context.Context) ([]*models.Squad, error) {
	var squads []*models.Squad
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&squads).Error
	if err != nil {
		return nil, err
	}
	return squads, nil
}

// AddSquadMember inserts a roster entry. A second join returns ErrDuplicate.
func (r *Repository) AddSquadMember(ctx context.Context, member *models.SquadMember) error {
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

// RemoveSquadMember deletes a roster entry
func (r *Repository) RemoveSquadMember(ctx context.Context, squadID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("squad_id = ? AND user_id = ?", squadID, userID).
		Delete(&models.SquadMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSquadMembers retrieves the roster in join order
func (r *Repository) ListSquadMembers(ctx context.Context, squadID uuid.UUID) ([]*models.SquadMember, error) {
	var members []*models.SquadMember
	err := r.db.WithContext(ctx).
		Where("squad_id = ?", squadID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CountSquadMembers counts the current roster
func (r *Repository) CountSquadMembers(ctx context.Context, squadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SquadMember{}).
		Where("squad_id = ?", squadID).
		Count(&count).Error
	return count, err
}

// IsSquadMember reports whether the user is on the squad roster
func (r *Repository) IsSquadMember(ctx context.Context, squadID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squadID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListSquadMemberIDs retrieves the user IDs on the roster
func (r *Repository) ListSquadMemberIDs(ctx context.Context, squadID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.SquadMember{}).
		Where("squad_id = ?", squadID).
		Order("joined_at ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
