package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/user"
)

// CompetitionService exposes competition reads and the monotonic status
// transitions organizers and admins drive.
type CompetitionService struct {
	competitionRepo competition.Repository
	logger          *slog.Logger
}

func NewCompetitionService(competitionRepo competition.Repository, logger *slog.Logger) *CompetitionService {
	if logger == nil {
		logger = slog.Default()
	}

	return &CompetitionService{
		competitionRepo: competitionRepo,
		logger:          logger,
	}
}

func (s *CompetitionService) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	items, err := s.competitionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	return items, nil
}

func (s *CompetitionService) GetCompetition(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}

	return comp, nil
}

// TransitionStatus advances the competition lifecycle. Status moves forward
// one step at a time; cancelled is reachable from any non-terminal state.
func (s *CompetitionService) TransitionStatus(ctx context.Context, competitionID string, next competition.Status, actor user.Principal) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return competition.Competition{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}

	if !actor.CanDecide(comp.Region, comp.OwnerID) {
		return competition.Competition{}, fmt.Errorf("%w: role %s cannot manage competition %s", ErrForbidden, actor.Role, comp.ID)
	}
	if comp.Status == next {
		return comp, nil
	}
	if !comp.CanTransitionTo(next) {
		return competition.Competition{}, fmt.Errorf("%w: competition %s cannot move from %s to %s", ErrConflict, comp.ID, comp.Status, next)
	}

	if err := s.competitionRepo.UpdateStatus(ctx, competitionID, next); err != nil {
		return competition.Competition{}, fmt.Errorf("update competition status: %w", err)
	}
	comp.Status = next

	s.logger.InfoContext(ctx, "competition status changed",
		"competition_id", competitionID,
		"status", next,
	)

	return comp, nil
}
