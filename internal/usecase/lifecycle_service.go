package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/domain/request"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/domain/user"
	idgen "github.com/openbracket/arena/internal/platform/id"
)

// LifecycleService is the façade the request layer talks to. It performs
// the capability check up front, delegates to the managers (which serialize
// per aggregate), and publishes notifications strictly after the managers
// committed. A failed sub-step surfaces its specific reason; nothing is
// swallowed.
type LifecycleService struct {
	membership   *MembershipService
	requests     *RequestService
	applications *ApplicationService
	notifier     Notifier
	idGen        idgen.Generator
	logger       *slog.Logger
	now          func() time.Time
}

func NewLifecycleService(
	membership *MembershipService,
	requests *RequestService,
	applications *ApplicationService,
	notifier Notifier,
	idGen idgen.Generator,
	logger *slog.Logger,
) *LifecycleService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LifecycleService{
		membership:   membership,
		requests:     requests,
		applications: applications,
		notifier:     notifier,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateTeam founds a team with the actor as captain.
func (s *LifecycleService) CreateTeam(ctx context.Context, input CreateTeamInput, actor user.Principal) (team.Team, error) {
	if err := actor.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.membership.CreateTeam(ctx, input, actor.ID, s.idGen)
}

// InviteMember opens a captain-initiated invitation and announces it.
func (s *LifecycleService) InviteMember(ctx context.Context, teamID string, actor user.Principal, targetUserID string) (request.TeamRequest, error) {
	edge, err := s.requests.CreateInvite(ctx, teamID, actor, targetUserID)
	if err != nil {
		return request.TeamRequest{}, err
	}

	s.publish(ctx, Event{
		Type:          EventInviteCreated,
		CompetitionID: edge.CompetitionID,
		TeamID:        edge.TeamID,
		UserID:        edge.UserID,
		RequestID:     edge.ID,
	})

	return edge, nil
}

// RequestToJoin opens a user-initiated join request.
func (s *LifecycleService) RequestToJoin(ctx context.Context, teamID string, actor user.Principal) (request.TeamRequest, error) {
	edge, err := s.requests.CreateJoinRequest(ctx, teamID, actor)
	if err != nil {
		return request.TeamRequest{}, err
	}

	s.publish(ctx, Event{
		Type:          EventJoinRequestCreated,
		CompetitionID: edge.CompetitionID,
		TeamID:        edge.TeamID,
		UserID:        edge.UserID,
		RequestID:     edge.ID,
	})

	return edge, nil
}

// RespondToRequest resolves a pending edge; an accepted edge and its roster
// mutation commit as one serialized unit inside the request manager.
func (s *LifecycleService) RespondToRequest(ctx context.Context, requestID string, decision request.Decision, actor user.Principal) (request.TeamRequest, error) {
	edge, err := s.requests.Respond(ctx, requestID, decision, actor)
	if err != nil {
		return request.TeamRequest{}, err
	}

	eventType := EventRequestAccepted
	if edge.Status == request.StatusRejected {
		eventType = EventRequestRejected
	}
	s.publish(ctx, Event{
		Type:          eventType,
		CompetitionID: edge.CompetitionID,
		TeamID:        edge.TeamID,
		UserID:        edge.UserID,
		RequestID:     edge.ID,
	})

	return edge, nil
}

// LeaveTeam removes the actor from the roster.
func (s *LifecycleService) LeaveTeam(ctx context.Context, teamID string, actor user.Principal) (team.Team, error) {
	if err := actor.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.membership.RemoveMember(ctx, teamID, actor.ID)
}

// RemoveMember evicts another user from the roster; captain-only.
func (s *LifecycleService) RemoveMember(ctx context.Context, teamID string, actor user.Principal, targetUserID string) (team.Team, error) {
	if err := actor.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	t, err := s.membership.GetTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}
	if !t.IsCaptain(actor.ID) {
		return team.Team{}, fmt.Errorf("%w: only the captain can remove members from team %s", ErrForbidden, teamID)
	}

	return s.membership.RemoveMember(ctx, teamID, targetUserID)
}

// TransferCaptaincy hands the captain flag from the actor to another
// member.
func (s *LifecycleService) TransferCaptaincy(ctx context.Context, teamID string, actor user.Principal, toUserID string) (team.Team, error) {
	if err := actor.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.membership.TransferCaptaincy(ctx, teamID, actor.ID, toUserID)
}

// SubmitApplication files a bid for a competition slot.
func (s *LifecycleService) SubmitApplication(ctx context.Context, input SubmitApplicationInput, actor user.Principal) (application.Application, error) {
	return s.applications.Submit(ctx, input, actor)
}

// DecideApplication approves or rejects a pending application and, on
// approval, materializes the registration.
func (s *LifecycleService) DecideApplication(ctx context.Context, applicationID string, decision application.Decision, actor user.Principal) (application.Application, error) {
	app, err := s.applications.Decide(ctx, applicationID, decision, actor)
	if err != nil {
		return application.Application{}, err
	}

	eventType := EventApplicationApproved
	if app.Status == application.StatusRejected {
		eventType = EventApplicationRejected
	}
	s.publish(ctx, Event{
		Type:          eventType,
		CompetitionID: app.CompetitionID,
		TeamID:        app.TeamID,
		UserID:        app.SubmitterID,
		ApplicationID: app.ID,
	})

	return app, nil
}

// WithdrawRegistration retires an approved registration; submitter-only,
// idempotent on repeat.
func (s *LifecycleService) WithdrawRegistration(ctx context.Context, registrationID string, actor user.Principal) (application.Registration, error) {
	return s.applications.Withdraw(ctx, registrationID, actor)
}

func (s *LifecycleService) publish(ctx context.Context, event Event) {
	event.OccurredAt = s.now().UTC()
	s.notifier.Publish(ctx, event)
}
