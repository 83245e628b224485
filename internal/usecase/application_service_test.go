package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/domain/user"
	"github.com/openbracket/arena/internal/infrastructure/repository/memory"
)

type applicationFixture struct {
	service    *ApplicationService
	membership *MembershipService
	teamRepo   *memory.TeamRepository
	appRepo    *memory.ApplicationRepository
}

func newApplicationFixture(t *testing.T) *applicationFixture {
	t.Helper()

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	competitionRepo := memory.NewCompetitionRepository(memory.SeedCompetitions())
	appRepo := memory.NewApplicationRepository()

	membership := NewMembershipService(teamRepo, competitionRepo, nil, testLogger())
	membership.now = func() time.Time { return springNow }

	service := NewApplicationService(
		appRepo,
		teamRepo,
		competitionRepo,
		membership,
		membership.locks,
		&seqIDGenerator{prefix: "app"},
		testLogger(),
	)
	service.now = func() time.Time { return springNow }

	return &applicationFixture{
		service:    service,
		membership: membership,
		teamRepo:   teamRepo,
		appRepo:    appRepo,
	}
}

// completeTeam fills the seed team to Spring Open's max size so it becomes
// eligible to apply.
func (fx *applicationFixture) completeTeam(t *testing.T) {
	t.Helper()

	for _, userID := range []string{"user-grace", "user-joan"} {
		if _, err := fx.membership.AddMember(t.Context(), "spring-nullptr", userID, ""); err != nil {
			t.Fatalf("fill roster: %v", err)
		}
	}
}

func admin(id string) user.Principal {
	return user.Principal{ID: id, Role: user.RoleAdmin}
}

func regional(id, region string) user.Principal {
	return user.Principal{ID: id, Role: user.RoleRegional, Region: region}
}

func TestApplicationService_Submit_IneligibleTeam(t *testing.T) {
	fx := newApplicationFixture(t)

	// Seed team has 2 of 4 members, still forming.
	_, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if !errors.Is(err, ErrIneligibleTeam) {
		t.Fatalf("expected ErrIneligibleTeam for a forming team, got %v", err)
	}
}

func TestApplicationService_Submit_CaptainOnly(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	_, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-linus"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-captain submitter, got %v", err)
	}
}

func TestApplicationService_Submit_RegistrationClosed(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.service.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }

	_, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
	}, participant("user-solo"))
	if !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected closed-registration error to wrap ErrWindowClosed, got %v", err)
	}
}

func TestApplicationService_Submit_DuplicateActive(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	if _, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada")); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}

	_, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestApplicationService_Decide_ApproveCreatesRegistration(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	decided, err := fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, admin("user-root"))
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if decided.Status != application.StatusApproved {
		t.Fatalf("expected approved application, got %s", decided.Status)
	}
	if decided.DecidedBy != "user-root" {
		t.Fatalf("expected decided_by user-root, got %s", decided.DecidedBy)
	}

	reg, exists, err := fx.appRepo.GetRegistrationByApplication(t.Context(), app.ID)
	if err != nil || !exists {
		t.Fatalf("expected registration for approved application, exists=%t err=%v", exists, err)
	}
	if reg.Status != application.RegistrationApproved {
		t.Fatalf("expected approved registration, got %s", reg.Status)
	}

	// Approval sticks to the backing team: the roster freezes as approved
	// and no longer flips with membership churn.
	roster, _, err := fx.teamRepo.GetByID(t.Context(), "spring-nullptr")
	if err != nil {
		t.Fatalf("get team failed: %v", err)
	}
	if roster.Status != team.StatusApproved {
		t.Fatalf("expected approved team, got %s", roster.Status)
	}
}

func TestApplicationService_Decide_RegionalScope(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Spring Open runs in eu-west; a us-east regional cannot touch it and
	// the application stays pending.
	_, err = fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, regional("user-pac", "us-east"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for out-of-region decider, got %v", err)
	}

	current, err := fx.service.GetApplication(t.Context(), app.ID)
	if err != nil {
		t.Fatalf("get application failed: %v", err)
	}
	if current.Status != application.StatusPending {
		t.Fatalf("expected application still pending, got %s", current.Status)
	}

	if _, err := fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, regional("user-eur", "eu-west")); err != nil {
		t.Fatalf("in-region approve failed: %v", err)
	}
}

func TestApplicationService_Decide_Idempotent(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, admin("user-root")); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	repeat, err := fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, admin("user-root"))
	if err != nil {
		t.Fatalf("repeat approve failed: %v", err)
	}
	if repeat.Status != application.StatusApproved {
		t.Fatalf("expected approved on repeat, got %s", repeat.Status)
	}

	_, err = fx.service.Decide(t.Context(), app.ID, application.DecisionReject, admin("user-root"))
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending on contradicting decision, got %v", err)
	}
}

func TestApplicationService_Withdraw(t *testing.T) {
	fx := newApplicationFixture(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
	}, participant("user-solo"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := fx.service.Decide(t.Context(), app.ID, application.DecisionApprove, admin("user-root")); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	reg, _, err := fx.appRepo.GetRegistrationByApplication(t.Context(), app.ID)
	if err != nil {
		t.Fatalf("get registration failed: %v", err)
	}

	// Only the original submitter may withdraw.
	_, err = fx.service.Withdraw(t.Context(), reg.ID, participant("user-other"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign withdrawer, got %v", err)
	}

	withdrawn, err := fx.service.Withdraw(t.Context(), reg.ID, participant("user-solo"))
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Status != application.RegistrationWithdrawn {
		t.Fatalf("expected withdrawn registration, got %s", withdrawn.Status)
	}

	// Repeating the withdrawal is a no-op success.
	again, err := fx.service.Withdraw(t.Context(), reg.ID, participant("user-solo"))
	if err != nil {
		t.Fatalf("repeat withdraw failed: %v", err)
	}
	if again.Status != application.RegistrationWithdrawn {
		t.Fatalf("expected withdrawn on repeat, got %s", again.Status)
	}

	// The underlying application never reopens; a fresh entry for the same
	// submitter is still blocked by the approved application.
	_, err = fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
	}, participant("user-solo"))
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication after withdrawal, got %v", err)
	}
}

func TestApplicationService_RejectTeamApplication(t *testing.T) {
	fx := newApplicationFixture(t)
	fx.completeTeam(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := fx.service.Decide(t.Context(), app.ID, application.DecisionReject, admin("user-root")); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if _, exists, err := fx.appRepo.GetRegistrationByApplication(t.Context(), app.ID); err != nil || exists {
		t.Fatalf("expected no registration after rejection, exists=%t err=%v", exists, err)
	}

	// The rejection mirrors onto the team and sticks: the roster no longer
	// counts as complete, so the team cannot simply file again.
	roster, _, err := fx.teamRepo.GetByID(t.Context(), "spring-nullptr")
	if err != nil {
		t.Fatalf("get team failed: %v", err)
	}
	if roster.Status != team.StatusRejected {
		t.Fatalf("expected rejected team, got %s", roster.Status)
	}
	_, err = fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
		TeamID:        "spring-nullptr",
	}, participant("user-ada"))
	if !errors.Is(err, ErrIneligibleTeam) {
		t.Fatalf("expected ErrIneligibleTeam after team rejection, got %v", err)
	}
}

func TestApplicationService_RejectedSoloEntryCanReapply(t *testing.T) {
	fx := newApplicationFixture(t)

	app, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
	}, participant("user-solo"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := fx.service.Decide(t.Context(), app.ID, application.DecisionReject, admin("user-root")); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	// A rejected application frees the slot for a fresh solo entry.
	second, err := fx.service.Submit(t.Context(), SubmitApplicationInput{
		CompetitionID: memory.CompetitionIDSpringOpen,
	}, participant("user-solo"))
	if err != nil {
		t.Fatalf("resubmission after reject failed: %v", err)
	}
	if second.ID == app.ID {
		t.Fatalf("expected a fresh application id")
	}
}
