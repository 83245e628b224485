package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/domain/user"
	idgen "github.com/openbracket/arena/internal/platform/id"
	"github.com/openbracket/arena/internal/platform/keylock"
)

// SubmitApplicationInput is the incoming payload for a competition entry.
// TeamID is empty for individual entries.
type SubmitApplicationInput struct {
	CompetitionID string
	TeamID        string
}

// ApplicationService owns the application and registration state machines.
// It is the only writer of their status fields.
type ApplicationService struct {
	applicationRepo application.Repository
	teamRepo        team.Repository
	competitionRepo competition.Repository
	membership      *MembershipService
	locks           *keylock.KeyedMutex
	idGen           idgen.Generator
	logger          *slog.Logger
	now             func() time.Time
}

func NewApplicationService(
	applicationRepo application.Repository,
	teamRepo team.Repository,
	competitionRepo competition.Repository,
	membership *MembershipService,
	locks *keylock.KeyedMutex,
	idGen idgen.Generator,
	logger *slog.Logger,
) *ApplicationService {
	if locks == nil {
		locks = keylock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ApplicationService{
		applicationRepo: applicationRepo,
		teamRepo:        teamRepo,
		competitionRepo: competitionRepo,
		membership:      membership,
		locks:           locks,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
	}
}

// Submit files a team's or individual's bid for a competition slot.
func (s *ApplicationService) Submit(ctx context.Context, input SubmitApplicationInput, actor user.Principal) (application.Application, error) {
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	if input.CompetitionID == "" {
		return application.Application{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return application.Application{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return application.Application{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return application.Application{}, fmt.Errorf("%w: competition=%s", ErrNotFound, input.CompetitionID)
	}
	if !comp.RegistrationOpen(s.now().UTC()) {
		return application.Application{}, fmt.Errorf("%w: competition=%s", ErrRegistrationClosed, comp.ID)
	}

	if input.TeamID != "" {
		return s.submitForTeam(ctx, comp, input.TeamID, actor)
	}
	return s.submitForUser(ctx, comp, actor)
}

// Decide resolves a pending application. Approval creates or refreshes the
// registration; rejection leaves no registration behind. The actor must
// hold decision capability for the competition's region or own it.
func (s *ApplicationService) Decide(ctx context.Context, applicationID string, decision application.Decision, actor user.Principal) (application.Application, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return application.Application{}, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return application.Application{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	switch decision {
	case application.DecisionApprove, application.DecisionReject:
	default:
		return application.Application{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, decision)
	}

	unlock := s.locks.Lock(applicationLockKey(applicationID))
	defer unlock()

	app, exists, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return application.Application{}, fmt.Errorf("get application: %w", err)
	}
	if !exists {
		return application.Application{}, fmt.Errorf("%w: application=%s", ErrNotFound, applicationID)
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, app.CompetitionID)
	if err != nil {
		return application.Application{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return application.Application{}, fmt.Errorf("%w: competition=%s", ErrNotFound, app.CompetitionID)
	}

	if !actor.CanDecide(comp.Region, comp.OwnerID) {
		return application.Application{}, fmt.Errorf("%w: role %s cannot decide applications for competition %s", ErrForbidden, actor.Role, comp.ID)
	}

	if !app.Pending() {
		if application.Status(decision) == app.Status {
			return app, nil
		}
		return application.Application{}, fmt.Errorf("%w: application=%s status=%s", ErrNotPending, applicationID, app.Status)
	}

	decided, won, err := s.applicationRepo.Decide(ctx, applicationID, application.Status(decision), actor.ID)
	if err != nil {
		return application.Application{}, fmt.Errorf("decide application: %w", err)
	}
	if !won {
		if application.Status(decision) == decided.Status {
			return decided, nil
		}
		return application.Application{}, fmt.Errorf("%w: application=%s status=%s", ErrNotPending, applicationID, decided.Status)
	}

	if decision == application.DecisionApprove {
		if err := s.ensureRegistration(ctx, decided); err != nil {
			return application.Application{}, err
		}
	}
	if decided.TeamBased() {
		s.applyDecisionToTeam(ctx, decided, decision)
	}

	s.logger.InfoContext(ctx, "application decided",
		"application_id", applicationID,
		"competition_id", decided.CompetitionID,
		"decision", decision,
		"decided_by", actor.ID,
	)

	return decided, nil
}

// Withdraw retires an approved registration. Only the original submitter
// may withdraw, repeating it is a no-op, and the underlying application
// never reopens.
func (s *ApplicationService) Withdraw(ctx context.Context, registrationID string, actor user.Principal) (application.Registration, error) {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return application.Registration{}, fmt.Errorf("%w: registration id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return application.Registration{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	unlock := s.locks.Lock(registrationLockKey(registrationID))
	defer unlock()

	for attempt := 0; attempt < teamSaveAttempts; attempt++ {
		reg, exists, err := s.applicationRepo.GetRegistrationByID(ctx, registrationID)
		if err != nil {
			return application.Registration{}, fmt.Errorf("get registration: %w", err)
		}
		if !exists {
			return application.Registration{}, fmt.Errorf("%w: registration=%s", ErrNotFound, registrationID)
		}
		if reg.SubmitterID != actor.ID {
			return application.Registration{}, fmt.Errorf("%w: only the original submitter can withdraw registration %s", ErrForbidden, registrationID)
		}

		if reg.Status == application.RegistrationWithdrawn {
			return reg, nil
		}
		if reg.Status != application.RegistrationApproved {
			return application.Registration{}, fmt.Errorf("%w: registration=%s status=%s", ErrNotPending, registrationID, reg.Status)
		}

		reg.Status = application.RegistrationWithdrawn
		reg.UpdatedAt = s.now().UTC()

		saved, err := s.applicationRepo.SaveRegistration(ctx, reg)
		if errors.Is(err, application.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return application.Registration{}, fmt.Errorf("save registration: %w", err)
		}

		s.logger.InfoContext(ctx, "registration withdrawn",
			"registration_id", registrationID,
			"competition_id", saved.CompetitionID,
			"user_id", actor.ID,
		)

		return saved, nil
	}

	return application.Registration{}, fmt.Errorf("%w: registration=%s keeps changing underneath us", ErrConflict, registrationID)
}

// GetApplication returns a single application by id.
func (s *ApplicationService) GetApplication(ctx context.Context, applicationID string) (application.Application, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return application.Application{}, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	app, exists, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return application.Application{}, fmt.Errorf("get application: %w", err)
	}
	if !exists {
		return application.Application{}, fmt.Errorf("%w: application=%s", ErrNotFound, applicationID)
	}

	return app, nil
}

// GetRegistration returns a single registration by id.
func (s *ApplicationService) GetRegistration(ctx context.Context, registrationID string) (application.Registration, error) {
	registrationID = strings.TrimSpace(registrationID)
	if registrationID == "" {
		return application.Registration{}, fmt.Errorf("%w: registration id is required", ErrInvalidInput)
	}

	reg, exists, err := s.applicationRepo.GetRegistrationByID(ctx, registrationID)
	if err != nil {
		return application.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	if !exists {
		return application.Registration{}, fmt.Errorf("%w: registration=%s", ErrNotFound, registrationID)
	}

	return reg, nil
}

// ListApplications returns all applications filed for a competition.
func (s *ApplicationService) ListApplications(ctx context.Context, competitionID string) ([]application.Application, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	items, err := s.applicationRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	return items, nil
}

// ListRegistrations returns the admitted participants of a competition.
func (s *ApplicationService) ListRegistrations(ctx context.Context, competitionID string) ([]application.Registration, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	items, err := s.applicationRepo.ListRegistrationsByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	return items, nil
}

func (s *ApplicationService) submitForTeam(ctx context.Context, comp competition.Competition, teamID string, actor user.Principal) (application.Application, error) {
	t, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return application.Application{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return application.Application{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if t.CompetitionID != comp.ID {
		return application.Application{}, fmt.Errorf("%w: team %s does not belong to competition %s", ErrInvalidInput, teamID, comp.ID)
	}
	if !t.IsCaptain(actor.ID) {
		return application.Application{}, fmt.Errorf("%w: only the captain can submit an application for team %s", ErrForbidden, teamID)
	}
	if t.Status != team.StatusComplete {
		return application.Application{}, fmt.Errorf("%w: team=%s status=%s", ErrIneligibleTeam, teamID, t.Status)
	}

	// Duplicate check and create run under one key so two captains racing
	// the same submission cannot both slip past the check.
	unlock := s.locks.Lock(applicationScopeKey(teamID, comp.ID))
	defer unlock()

	if _, active, err := s.applicationRepo.ActiveByTeam(ctx, teamID, comp.ID); err != nil {
		return application.Application{}, fmt.Errorf("check active application: %w", err)
	} else if active {
		return application.Application{}, fmt.Errorf("%w: team=%s competition=%s", ErrDuplicateApplication, teamID, comp.ID)
	}

	return s.createApplication(ctx, comp.ID, teamID, actor.ID)
}

func (s *ApplicationService) submitForUser(ctx context.Context, comp competition.Competition, actor user.Principal) (application.Application, error) {
	unlock := s.locks.Lock(applicationScopeKey(actor.ID, comp.ID))
	defer unlock()

	if _, active, err := s.applicationRepo.ActiveBySubmitter(ctx, actor.ID, comp.ID); err != nil {
		return application.Application{}, fmt.Errorf("check active application: %w", err)
	} else if active {
		return application.Application{}, fmt.Errorf("%w: user=%s competition=%s", ErrDuplicateApplication, actor.ID, comp.ID)
	}

	return s.createApplication(ctx, comp.ID, "", actor.ID)
}

func (s *ApplicationService) createApplication(ctx context.Context, competitionID, teamID, submitterID string) (application.Application, error) {
	applicationID, err := s.idGen.NewID()
	if err != nil {
		return application.Application{}, fmt.Errorf("generate application id: %w", err)
	}

	app := application.Application{
		ID:            applicationID,
		CompetitionID: competitionID,
		TeamID:        teamID,
		SubmitterID:   submitterID,
		Status:        application.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := app.Validate(); err != nil {
		return application.Application{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.applicationRepo.Create(ctx, app); err != nil {
		return application.Application{}, fmt.Errorf("create application: %w", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID,
		"competition_id", competitionID,
		"team_id", teamID,
		"submitter_id", submitterID,
	)

	return app, nil
}

// ensureRegistration creates the admitted-participant record for an
// approved application, or re-approves one left from an earlier cycle.
func (s *ApplicationService) ensureRegistration(ctx context.Context, app application.Application) error {
	existing, exists, err := s.applicationRepo.GetRegistrationByApplication(ctx, app.ID)
	if err != nil {
		return fmt.Errorf("get registration: %w", err)
	}
	if exists {
		if existing.Status == application.RegistrationApproved {
			return nil
		}
		existing.Status = application.RegistrationApproved
		existing.UpdatedAt = s.now().UTC()
		if _, err := s.applicationRepo.SaveRegistration(ctx, existing); err != nil {
			return fmt.Errorf("save registration: %w", err)
		}
		return nil
	}

	registrationID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate registration id: %w", err)
	}

	now := s.now().UTC()
	reg := application.Registration{
		ID:            registrationID,
		ApplicationID: app.ID,
		CompetitionID: app.CompetitionID,
		TeamID:        app.TeamID,
		SubmitterID:   app.SubmitterID,
		Status:        application.RegistrationApproved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.applicationRepo.CreateRegistration(ctx, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}

	return nil
}

// applyDecisionToTeam mirrors the privileged decision onto the backing
// team's status. A failure here is logged, not surfaced: the decision and
// registration already committed.
func (s *ApplicationService) applyDecisionToTeam(ctx context.Context, app application.Application, decision application.Decision) {
	status := team.StatusApproved
	if decision == application.DecisionReject {
		status = team.StatusRejected
	}

	if _, err := s.membership.mutateTeam(ctx, app.TeamID, func(t *team.Team, _ competition.Competition) error {
		t.Status = status
		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "mirror decision onto team failed",
			"application_id", app.ID,
			"team_id", app.TeamID,
			"decision", decision,
			"error", err,
		)
	}
}

func applicationLockKey(applicationID string) string {
	return "application:" + applicationID
}

func registrationLockKey(registrationID string) string {
	return "registration:" + registrationID
}

func applicationScopeKey(scopeID, competitionID string) string {
	return "application-scope:" + scopeID + ":" + competitionID
}
