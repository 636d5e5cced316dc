package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"daily-squad/internal/deadline"
	"daily-squad/internal/models"
	"daily-squad/internal/repository"
	"daily-squad/internal/utils"

	"github.com/google/uuid"
)

// Roster answers membership questions about a squad. Every call reads the
// current membership; nothing is snapshotted.
type Roster interface {
	MemberCount(ctx context.Context, squadID uuid.UUID) (int64, error)
	IsMember(ctx context.Context, squadID, userID uuid.UUID) (bool, error)
	MemberIDs(ctx context.Context, squadID uuid.UUID) ([]uuid.UUID, error)
}

type SquadService struct {
	repo   *repository.Repository
	clock  deadline.Clock
	logger *slog.Logger
}

func NewSquadService(repo *repository.Repository, clock deadline.Clock, logger *slog.Logger) *SquadService {
	return &SquadService{repo: repo, clock: clock, logger: logger}
}

// CreateSquad creates a squad and makes the creator its first member
func (s *SquadService) CreateSquad(ctx context.Context, creatorID uuid.UUID, req *models.CreateSquadRequest) (*models.Squad, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		generated, err := utils.GenerateSquadName()
		if err != nil {
			return nil, err
		}
		name = generated
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSquad, timezone)
	}

	now := s.clock.Now()
	squad := &models.Squad{
		ID:        uuid.New(),
		Name:      name,
		Timezone:  timezone,
		CreatedAt: now,
	}
	member := &models.SquadMember{
		ID:       uuid.New(),
		SquadID:  squad.ID,
		UserID:   creatorID,
		Nickname: req.Nickname,
		JoinedAt: now,
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateSquad(ctx, squad); err != nil {
			return fmt.Errorf("failed to create squad: %w", err)
		}
		if err := tx.AddSquadMember(ctx, member); err != nil {
			return fmt.Errorf("failed to add creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "squad created", "squad_id", squad.ID, "user_id", creatorID)
	return squad, nil
}

func (s *SquadService) GetSquad(ctx context.Context, squadID uuid.UUID) (*models.Squad, error) {
	squad, err := s.repo.GetSquadByID(ctx, squadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSquadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get squad: %w", err)
	}
	return squad, nil
}

// AddMember puts a user on the squad roster
func (s *SquadService) AddMember(ctx context.Context, squadID, userID uuid.UUID, nickname string) (*models.SquadMember, error) {
	if _, err := s.GetSquad(ctx, squadID); err != nil {
		return nil, err
	}

	member := &models.SquadMember{
		ID:       uuid.New(),
		SquadID:  squadID,
		UserID:   userID,
		Nickname: nickname,
		JoinedAt: s.clock.Now(),
	}
	err := s.repo.AddSquadMember(ctx, member)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.logger.InfoContext(ctx, "member joined", "squad_id", squadID, "user_id", userID)
	return member, nil
}

// RemoveMember takes a user off the roster. Quorum denominators of open
// dispute windows shrink immediately.
func (s *SquadService) RemoveMember(ctx context.Context, squadID, userID uuid.UUID) error {
	err := s.repo.RemoveSquadMember(ctx, squadID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotSquadMember
	}
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.logger.InfoContext(ctx, "member left", "squad_id", squadID, "user_id", userID)
	return nil
}

func (s *SquadService) ListMembers(ctx context.Context, squadID uuid.UUID) ([]*models.SquadMember, error) {
	if _, err := s.GetSquad(ctx, squadID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListSquadMembers(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *SquadService) MemberCount(ctx context.Context, squadID uuid.UUID) (int64, error) {
	count, err := s.repo.CountSquadMembers(ctx, squadID)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (s *SquadService) IsMember(ctx context.Context, squadID, userID uuid.UUID) (bool, error) {
	ok, err := s.repo.IsSquadMember(ctx, squadID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

func (s *SquadService) MemberIDs(ctx context.Context, squadID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.repo.ListSquadMemberIDs(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	return ids, nil
}
