package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/team"
	idgen "github.com/openbracket/arena/internal/platform/id"
	"github.com/openbracket/arena/internal/platform/keylock"
)

// teamSaveAttempts bounds the optimistic retry loop when an out-of-process
// writer bumped the team version between our read and save.
const teamSaveAttempts = 3

// MembershipService enforces team capacity, role slots, and member
// uniqueness. Every mutation of a team runs under the per-team lock and a
// version-guarded save, so concurrent writers against the same roster are
// serialized and the capacity invariant never observably breaks.
type MembershipService struct {
	teamRepo        team.Repository
	competitionRepo competition.Repository
	locks           *keylock.KeyedMutex
	logger          *slog.Logger
	now             func() time.Time
}

func NewMembershipService(
	teamRepo team.Repository,
	competitionRepo competition.Repository,
	locks *keylock.KeyedMutex,
	logger *slog.Logger,
) *MembershipService {
	if locks == nil {
		locks = keylock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MembershipService{
		teamRepo:        teamRepo,
		competitionRepo: competitionRepo,
		locks:           locks,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateTeamInput is the incoming payload for founding a team. The creator
// becomes the captain and first roster entry.
type CreateTeamInput struct {
	CompetitionID string
	Name          string
	CaptainRole   string
	RequiredRoles []string
}

// CreateTeam founds a new forming team inside an open competition.
func (s *MembershipService) CreateTeam(ctx context.Context, input CreateTeamInput, captainID string, idGen idgen.Generator) (team.Team, error) {
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.Name = strings.TrimSpace(input.Name)
	captainID = strings.TrimSpace(captainID)
	if input.CompetitionID == "" || input.Name == "" || captainID == "" {
		return team.Team{}, fmt.Errorf("%w: competition id, team name and captain id are required", ErrInvalidInput)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: competition=%s", ErrNotFound, input.CompetitionID)
	}
	if !comp.RegistrationOpen(s.now().UTC()) {
		return team.Team{}, fmt.Errorf("%w: competition=%s", ErrWindowClosed, comp.ID)
	}

	teamID, err := idGen.NewID()
	if err != nil {
		return team.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	now := s.now().UTC()
	t := team.Team{
		ID:            teamID,
		CompetitionID: comp.ID,
		Name:          input.Name,
		Status:        team.StatusForming,
		Members: []team.Member{{
			UserID:    captainID,
			Role:      strings.TrimSpace(input.CaptainRole),
			IsCaptain: true,
			JoinedAt:  now,
		}},
		RequiredRoles: input.RequiredRoles,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	t.EvaluateStatus(comp.MaxTeamSize)
	if err := t.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.teamRepo.Create(ctx, t); err != nil {
		return team.Team{}, fmt.Errorf("create team: %w", err)
	}

	s.logger.InfoContext(ctx, "team created",
		"team_id", t.ID,
		"competition_id", comp.ID,
		"captain_id", captainID,
	)

	return t, nil
}

// GetTeam returns a team with its roster.
func (s *MembershipService) GetTeam(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	t, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	return t, nil
}

// ListTeams returns every team registered under a competition.
func (s *MembershipService) ListTeams(ctx context.Context, competitionID string) ([]team.Team, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	teams, err := s.teamRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return teams, nil
}

// AddMember appends userID to the team roster as a non-captain member and
// re-evaluates the team status.
func (s *MembershipService) AddMember(ctx context.Context, teamID, userID, role string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	userID = strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return team.Team{}, fmt.Errorf("%w: team id and user id are required", ErrInvalidInput)
	}

	updated, err := s.mutateTeam(ctx, teamID, func(t *team.Team, comp competition.Competition) error {
		return s.addMember(t, comp, userID, role)
	})
	if err != nil {
		return team.Team{}, err
	}

	s.logger.InfoContext(ctx, "member added",
		"team_id", teamID,
		"user_id", userID,
		"member_count", len(updated.Members),
		"team_status", updated.Status,
	)

	return updated, nil
}

// RemoveMember removes userID from the roster. The sole captain cannot
// leave while other members remain; captaincy must be transferred first.
func (s *MembershipService) RemoveMember(ctx context.Context, teamID, userID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	userID = strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return team.Team{}, fmt.Errorf("%w: team id and user id are required", ErrInvalidInput)
	}

	updated, err := s.mutateTeam(ctx, teamID, func(t *team.Team, comp competition.Competition) error {
		member, ok := t.MemberByUser(userID)
		if !ok {
			return fmt.Errorf("%w: user=%s team=%s", ErrNotMember, userID, teamID)
		}
		if member.IsCaptain && len(t.Members) > 1 {
			return fmt.Errorf("%w: team=%s", ErrCaptainCannotLeave, teamID)
		}

		kept := make([]team.Member, 0, len(t.Members)-1)
		for _, m := range t.Members {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		t.Members = kept
		t.EvaluateStatus(comp.MaxTeamSize)
		return nil
	})
	if err != nil {
		return team.Team{}, err
	}

	s.logger.InfoContext(ctx, "member removed",
		"team_id", teamID,
		"user_id", userID,
		"member_count", len(updated.Members),
		"team_status", updated.Status,
	)

	return updated, nil
}

// TransferCaptaincy atomically moves the captain flag between two current
// members.
func (s *MembershipService) TransferCaptaincy(ctx context.Context, teamID, fromUserID, toUserID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	fromUserID = strings.TrimSpace(fromUserID)
	toUserID = strings.TrimSpace(toUserID)
	if teamID == "" || fromUserID == "" || toUserID == "" {
		return team.Team{}, fmt.Errorf("%w: team id and both user ids are required", ErrInvalidInput)
	}
	if fromUserID == toUserID {
		return team.Team{}, fmt.Errorf("%w: cannot transfer captaincy to the same user", ErrInvalidInput)
	}

	updated, err := s.mutateTeam(ctx, teamID, func(t *team.Team, _ competition.Competition) error {
		from, ok := t.MemberByUser(fromUserID)
		if !ok {
			return fmt.Errorf("%w: user=%s team=%s", ErrNotMember, fromUserID, teamID)
		}
		if _, ok := t.MemberByUser(toUserID); !ok {
			return fmt.Errorf("%w: user=%s team=%s", ErrNotMember, toUserID, teamID)
		}
		if !from.IsCaptain {
			return fmt.Errorf("%w: user %s is not the captain of team %s", ErrConflict, fromUserID, teamID)
		}

		for i := range t.Members {
			t.Members[i].IsCaptain = t.Members[i].UserID == toUserID
		}
		return nil
	})
	if err != nil {
		return team.Team{}, err
	}

	s.logger.InfoContext(ctx, "captaincy transferred",
		"team_id", teamID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
	)

	return updated, nil
}

// addMember is the roster mutation shared with the request manager so an
// accepted request applies the exact same rules under the same lock.
func (s *MembershipService) addMember(t *team.Team, comp competition.Competition, userID, role string) error {
	if !comp.RegistrationOpen(s.now().UTC()) {
		return fmt.Errorf("%w: competition=%s", ErrWindowClosed, comp.ID)
	}
	if _, ok := t.MemberByUser(userID); ok {
		return fmt.Errorf("%w: user=%s team=%s", ErrAlreadyMember, userID, t.ID)
	}
	if comp.MaxTeamSize > 0 && len(t.Members) >= comp.MaxTeamSize {
		return fmt.Errorf("%w: team=%s cap=%d", ErrCapacityExceeded, t.ID, comp.MaxTeamSize)
	}

	t.Members = append(t.Members, team.Member{
		UserID:    userID,
		Role:      strings.TrimSpace(role),
		IsCaptain: false,
		JoinedAt:  s.now().UTC(),
	})
	t.EvaluateStatus(comp.MaxTeamSize)

	return nil
}

// mutateTeam is the serialized read-modify-write every team mutation goes
// through: per-team lock, load, apply, version-guarded save with a bounded
// retry against out-of-process version bumps.
func (s *MembershipService) mutateTeam(
	ctx context.Context,
	teamID string,
	apply func(t *team.Team, comp competition.Competition) error,
) (team.Team, error) {
	unlock := s.locks.Lock(teamLockKey(teamID))
	defer unlock()

	return s.mutateTeamLocked(ctx, teamID, apply)
}

// mutateTeamLocked assumes the caller already holds the per-team lock. The
// request manager uses it to fold an edge resolution and the roster change
// into one serialized unit.
func (s *MembershipService) mutateTeamLocked(
	ctx context.Context,
	teamID string,
	apply func(t *team.Team, comp competition.Competition) error,
) (team.Team, error) {
	for attempt := 0; attempt < teamSaveAttempts; attempt++ {
		current, exists, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return team.Team{}, fmt.Errorf("get team: %w", err)
		}
		if !exists {
			return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
		}

		comp, exists, err := s.competitionRepo.GetByID(ctx, current.CompetitionID)
		if err != nil {
			return team.Team{}, fmt.Errorf("get competition: %w", err)
		}
		if !exists {
			return team.Team{}, fmt.Errorf("%w: competition=%s", ErrNotFound, current.CompetitionID)
		}

		if err := apply(&current, comp); err != nil {
			return team.Team{}, err
		}
		current.UpdatedAt = s.now().UTC()

		saved, err := s.teamRepo.Save(ctx, current)
		if errors.Is(err, team.ErrVersionConflict) {
			s.logger.WarnContext(ctx, "team version conflict, retrying",
				"team_id", teamID,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return team.Team{}, fmt.Errorf("save team: %w", err)
		}

		return saved, nil
	}

	return team.Team{}, fmt.Errorf("%w: team=%s keeps changing underneath us", ErrConflict, teamID)
}

func teamLockKey(teamID string) string {
	return "team:" + teamID
}
