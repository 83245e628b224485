package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/infrastructure/repository/memory"
)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type seqIDGenerator struct {
	prefix string
	next   int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// springNow is inside the Spring Open registration window.
var springNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMembershipService(t *testing.T) (*MembershipService, *memory.TeamRepository) {
	t.Helper()

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	competitionRepo := memory.NewCompetitionRepository(memory.SeedCompetitions())
	service := NewMembershipService(teamRepo, competitionRepo, nil, testLogger())
	service.now = func() time.Time { return springNow }

	return service, teamRepo
}

func TestMembershipService_CreateTeam_FounderIsCaptain(t *testing.T) {
	service, _ := newMembershipService(t)

	created, err := service.CreateTeam(t.Context(), CreateTeamInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		Name:          "Kernel Panic",
		CaptainRole:   "pwn",
	}, "user-mira", staticIDGenerator{id: "team-001"})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}

	if created.ID != "team-001" {
		t.Fatalf("expected team id team-001, got %s", created.ID)
	}
	if created.Status != team.StatusForming {
		t.Fatalf("expected forming status, got %s", created.Status)
	}
	if len(created.Members) != 1 || !created.Members[0].IsCaptain {
		t.Fatalf("expected founder as sole captain, got %+v", created.Members)
	}
	if created.Members[0].UserID != "user-mira" {
		t.Fatalf("expected captain user-mira, got %s", created.Members[0].UserID)
	}
}

func TestMembershipService_CreateTeam_WindowClosed(t *testing.T) {
	service, _ := newMembershipService(t)
	service.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	_, err := service.CreateTeam(t.Context(), CreateTeamInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		Name:          "Too Late",
	}, "user-mira", staticIDGenerator{id: "team-002"})
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected ErrWindowClosed, got %v", err)
	}
}

func TestMembershipService_AddMember_CapacityAndCompletion(t *testing.T) {
	service, _ := newMembershipService(t)

	// Spring Open caps rosters at 4; the seed team starts with 2 members.
	updated, err := service.AddMember(t.Context(), "spring-nullptr", "user-grace", "web")
	if err != nil {
		t.Fatalf("add third member failed: %v", err)
	}
	if updated.Status != team.StatusForming {
		t.Fatalf("expected forming with 3 of 4 slots, got %s", updated.Status)
	}

	updated, err = service.AddMember(t.Context(), "spring-nullptr", "user-joan", "crypto")
	if err != nil {
		t.Fatalf("add fourth member failed: %v", err)
	}
	if updated.Status != team.StatusComplete {
		t.Fatalf("expected complete with a full roster, got %s", updated.Status)
	}

	_, err = service.AddMember(t.Context(), "spring-nullptr", "user-leon", "")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded on fifth member, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected capacity error to wrap ErrConflict, got %v", err)
	}
}

func TestMembershipService_AddMember_AlreadyMember(t *testing.T) {
	service, _ := newMembershipService(t)

	_, err := service.AddMember(t.Context(), "spring-nullptr", "user-linus", "")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestMembershipService_RemoveMember_CaptainRules(t *testing.T) {
	service, _ := newMembershipService(t)

	// Captain with teammates still on the roster cannot walk away.
	_, err := service.RemoveMember(t.Context(), "spring-nullptr", "user-ada")
	if !errors.Is(err, ErrCaptainCannotLeave) {
		t.Fatalf("expected ErrCaptainCannotLeave, got %v", err)
	}

	// A sole captain dissolving the roster is fine.
	updated, err := service.RemoveMember(t.Context(), "spring-segfault", "user-grace")
	if err != nil {
		t.Fatalf("remove sole captain failed: %v", err)
	}
	if len(updated.Members) != 0 {
		t.Fatalf("expected empty roster, got %d members", len(updated.Members))
	}
}

func TestMembershipService_RemoveMember_NotMember(t *testing.T) {
	service, _ := newMembershipService(t)

	_, err := service.RemoveMember(t.Context(), "spring-nullptr", "user-nobody")
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestMembershipService_TransferCaptaincy(t *testing.T) {
	service, _ := newMembershipService(t)

	updated, err := service.TransferCaptaincy(t.Context(), "spring-nullptr", "user-ada", "user-linus")
	if err != nil {
		t.Fatalf("transfer captaincy failed: %v", err)
	}
	if !updated.IsCaptain("user-linus") {
		t.Fatalf("expected user-linus as captain after transfer")
	}
	if updated.IsCaptain("user-ada") {
		t.Fatalf("expected user-ada to lose the captain flag")
	}

	// After the transfer the previous captain may leave.
	if _, err := service.RemoveMember(t.Context(), "spring-nullptr", "user-ada"); err != nil {
		t.Fatalf("remove former captain failed: %v", err)
	}
}

func TestMembershipService_TransferCaptaincy_TargetNotMember(t *testing.T) {
	service, _ := newMembershipService(t)

	_, err := service.TransferCaptaincy(t.Context(), "spring-nullptr", "user-ada", "user-nobody")
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestMembershipService_VersionBumpsOnEveryMutation(t *testing.T) {
	service, teamRepo := newMembershipService(t)

	before, _, err := teamRepo.GetByID(t.Context(), "spring-nullptr")
	if err != nil {
		t.Fatalf("get team failed: %v", err)
	}

	updated, err := service.AddMember(t.Context(), "spring-nullptr", "user-grace", "")
	if err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	if updated.Version != before.Version+1 {
		t.Fatalf("expected version %d, got %d", before.Version+1, updated.Version)
	}
}
