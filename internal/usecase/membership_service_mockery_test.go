package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/team"
	competitionmock "github.com/openbracket/arena/internal/mocks/domain/competition"
	teammock "github.com/openbracket/arena/internal/mocks/domain/team"
)

func TestMembershipService_AddMember_RetriesOnVersionConflictUsingMockery(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	competitionRepo := competitionmock.NewRepository(t)
	service := NewMembershipService(teamRepo, competitionRepo, nil, testLogger())
	service.now = func() time.Time { return springNow }

	comp := competition.Competition{
		ID:                "comp-1",
		Region:            "eu-west",
		Status:            competition.StatusRegistration,
		RegistrationStart: springNow.Add(-time.Hour),
		RegistrationEnd:   springNow.Add(time.Hour),
		MaxTeamSize:       4,
	}
	stored := team.Team{
		ID:            "team-1",
		CompetitionID: comp.ID,
		Name:          "Mock Raiders",
		Status:        team.StatusForming,
		Members: []team.Member{
			{UserID: "user-cap", IsCaptain: true, JoinedAt: springNow},
		},
		Version: 7,
	}

	teamRepo.On("GetByID", mock.Anything, "team-1").Return(stored, true, nil).Twice()
	competitionRepo.On("GetByID", mock.Anything, comp.ID).Return(comp, true, nil).Twice()

	saved := stored
	saved.Members = append([]team.Member{}, stored.Members...)
	saved.Members = append(saved.Members, team.Member{UserID: "user-new", JoinedAt: springNow})
	saved.Version = 8

	// First save loses the version race; the second one lands.
	teamRepo.On("Save", mock.Anything, mock.Anything).Return(team.Team{}, team.ErrVersionConflict).Once()
	teamRepo.
		On("Save", mock.Anything, mock.MatchedBy(func(item team.Team) bool {
			return len(item.Members) == 2 && item.Version == 7
		})).
		Return(saved, nil).
		Once()

	updated, err := service.AddMember(t.Context(), "team-1", "user-new", "")
	if err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if updated.Version != 8 {
		t.Fatalf("expected version 8 after retry, got %d", updated.Version)
	}
	if len(updated.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(updated.Members))
	}
}

func TestMembershipService_AddMember_GivesUpAfterRepeatedConflictsUsingMockery(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	competitionRepo := competitionmock.NewRepository(t)
	service := NewMembershipService(teamRepo, competitionRepo, nil, testLogger())
	service.now = func() time.Time { return springNow }

	comp := competition.Competition{
		ID:                "comp-1",
		Status:            competition.StatusRegistration,
		RegistrationStart: springNow.Add(-time.Hour),
		RegistrationEnd:   springNow.Add(time.Hour),
		MaxTeamSize:       4,
	}
	stored := team.Team{
		ID:            "team-1",
		CompetitionID: comp.ID,
		Name:          "Mock Raiders",
		Status:        team.StatusForming,
		Members: []team.Member{
			{UserID: "user-cap", IsCaptain: true, JoinedAt: springNow},
		},
		Version: 1,
	}

	teamRepo.On("GetByID", mock.Anything, "team-1").Return(stored, true, nil).Times(3)
	competitionRepo.On("GetByID", mock.Anything, comp.ID).Return(comp, true, nil).Times(3)
	teamRepo.On("Save", mock.Anything, mock.Anything).Return(team.Team{}, team.ErrVersionConflict).Times(3)

	_, err := service.AddMember(t.Context(), "team-1", "user-new", "")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausting retries, got %v", err)
	}
}
