package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/request"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/domain/user"
	idgen "github.com/openbracket/arena/internal/platform/id"
	"github.com/openbracket/arena/internal/platform/keylock"
)

// Edge-resolution reasons recorded on the request when a decision lands.
const (
	reasonDeclined         = "declined"
	reasonAccepted         = "accepted"
	reasonCapacityExceeded = "capacity_exceeded"
	reasonWindowClosed     = "window_closed"
	reasonAlreadyMember    = "already_member"
)

// RequestService creates and resolves the directed edges between users and
// teams: captain-initiated invitations and user-initiated join requests.
// Accepting an edge and adding the member happen under the same per-team
// lock, so an accepted edge without a matching membership cannot exist.
type RequestService struct {
	requestRepo     request.Repository
	teamRepo        team.Repository
	competitionRepo competition.Repository
	membership      *MembershipService
	locks           *keylock.KeyedMutex
	idGen           idgen.Generator
	logger          *slog.Logger
	now             func() time.Time
}

func NewRequestService(
	requestRepo request.Repository,
	teamRepo team.Repository,
	competitionRepo competition.Repository,
	membership *MembershipService,
	locks *keylock.KeyedMutex,
	idGen idgen.Generator,
	logger *slog.Logger,
) *RequestService {
	if locks == nil {
		locks = keylock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RequestService{
		requestRepo:     requestRepo,
		teamRepo:        teamRepo,
		competitionRepo: competitionRepo,
		membership:      membership,
		locks:           locks,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateInvite opens a captain-initiated offer for targetUserID to join the
// team.
func (s *RequestService) CreateInvite(ctx context.Context, teamID string, actor user.Principal, targetUserID string) (request.TeamRequest, error) {
	teamID = strings.TrimSpace(teamID)
	targetUserID = strings.TrimSpace(targetUserID)
	if teamID == "" || targetUserID == "" {
		return request.TeamRequest{}, fmt.Errorf("%w: team id and target user id are required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return request.TeamRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.createEdge(ctx, request.KindInvite, teamID, targetUserID, func(t team.Team) error {
		if !t.IsCaptain(actor.ID) {
			return fmt.Errorf("%w: only the captain can invite members to team %s", ErrForbidden, teamID)
		}
		return nil
	})
}

// CreateJoinRequest opens a user-initiated request for the actor to join
// the team.
func (s *RequestService) CreateJoinRequest(ctx context.Context, teamID string, actor user.Principal) (request.TeamRequest, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return request.TeamRequest{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return request.TeamRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.createEdge(ctx, request.KindJoinRequest, teamID, actor.ID, nil)
}

// Respond resolves a pending edge. Accepting delegates to the membership
// rules; when the roster mutation fails (a race filled the last slot, the
// window shut) the edge finishes rejected carrying that reason instead of
// dangling as an accepted edge with no membership. Re-issuing the decision
// that already stands is a no-op success.
func (s *RequestService) Respond(ctx context.Context, requestID string, decision request.Decision, actor user.Principal) (request.TeamRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return request.TeamRequest{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return request.TeamRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	switch decision {
	case request.DecisionAccept, request.DecisionReject:
	default:
		return request.TeamRequest{}, fmt.Errorf("%w: unknown decision %q", ErrInvalidInput, decision)
	}

	edge, exists, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("get request: %w", err)
	}
	if !exists {
		return request.TeamRequest{}, fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}

	// Responders race per team, not per edge: two accepts for the last
	// roster slot must serialize on the same key the roster mutation uses.
	unlock := s.locks.Lock(teamLockKey(edge.TeamID))
	defer unlock()

	edge, exists, err = s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("get request: %w", err)
	}
	if !exists {
		return request.TeamRequest{}, fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}

	if err := s.authorizeResponder(ctx, edge, actor); err != nil {
		return request.TeamRequest{}, err
	}

	if !edge.Pending() {
		if request.Status(decision) == edge.Status {
			return edge, nil
		}
		return request.TeamRequest{}, fmt.Errorf("%w: request=%s status=%s", ErrNotPending, requestID, edge.Status)
	}

	if decision == request.DecisionReject {
		resolved, won, err := s.requestRepo.Resolve(ctx, requestID, request.StatusRejected, reasonDeclined)
		if err != nil {
			return request.TeamRequest{}, fmt.Errorf("resolve request: %w", err)
		}
		if !won && resolved.Status != request.StatusRejected {
			return request.TeamRequest{}, fmt.Errorf("%w: request=%s status=%s", ErrNotPending, requestID, resolved.Status)
		}

		s.logger.InfoContext(ctx, "request rejected",
			"request_id", requestID,
			"team_id", edge.TeamID,
			"user_id", edge.UserID,
			"kind", edge.Kind,
		)

		return resolved, nil
	}

	if _, err := s.membership.mutateTeamLocked(ctx, edge.TeamID, func(t *team.Team, comp competition.Competition) error {
		return s.membership.addMember(t, comp, edge.UserID, "")
	}); err != nil {
		if reason, expected := rejectionReason(err); expected {
			if _, _, resolveErr := s.requestRepo.Resolve(ctx, requestID, request.StatusRejected, reason); resolveErr != nil {
				s.logger.ErrorContext(ctx, "finalize rejected request failed",
					"request_id", requestID,
					"error", resolveErr,
				)
			}
		}
		return request.TeamRequest{}, err
	}

	resolved, _, err := s.requestRepo.Resolve(ctx, requestID, request.StatusAccepted, reasonAccepted)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("resolve request: %w", err)
	}

	s.logger.InfoContext(ctx, "request accepted",
		"request_id", requestID,
		"team_id", edge.TeamID,
		"user_id", edge.UserID,
		"kind", edge.Kind,
	)

	return resolved, nil
}

// GetRequest returns a single edge by id.
func (s *RequestService) GetRequest(ctx context.Context, requestID string) (request.TeamRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return request.TeamRequest{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	edge, exists, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("get request: %w", err)
	}
	if !exists {
		return request.TeamRequest{}, fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}

	return edge, nil
}

// ListTeamRequests returns all edges for a team, newest first ordering is
// left to the repository.
func (s *RequestService) ListTeamRequests(ctx context.Context, teamID string) ([]request.TeamRequest, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	items, err := s.requestRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team requests: %w", err)
	}

	return items, nil
}

// ListUserRequests returns every edge that targets or was opened by a user.
func (s *RequestService) ListUserRequests(ctx context.Context, userID string) ([]request.TeamRequest, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.requestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user requests: %w", err)
	}

	return items, nil
}

func (s *RequestService) createEdge(
	ctx context.Context,
	kind request.Kind,
	teamID, userID string,
	authorize func(t team.Team) error,
) (request.TeamRequest, error) {
	unlock := s.locks.Lock(teamLockKey(teamID))
	defer unlock()

	t, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return request.TeamRequest{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	if authorize != nil {
		if err := authorize(t); err != nil {
			return request.TeamRequest{}, err
		}
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, t.CompetitionID)
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists {
		return request.TeamRequest{}, fmt.Errorf("%w: competition=%s", ErrNotFound, t.CompetitionID)
	}

	if !comp.RegistrationOpen(s.now().UTC()) {
		return request.TeamRequest{}, fmt.Errorf("%w: competition=%s", ErrWindowClosed, comp.ID)
	}
	if t.Status != team.StatusForming {
		return request.TeamRequest{}, fmt.Errorf("%w: team=%s status=%s", ErrTeamFull, teamID, t.Status)
	}
	if _, ok := t.MemberByUser(userID); ok {
		return request.TeamRequest{}, fmt.Errorf("%w: user=%s team=%s", ErrAlreadyMember, userID, teamID)
	}

	if _, pending, err := s.requestRepo.PendingByUserAndTeam(ctx, userID, teamID); err != nil {
		return request.TeamRequest{}, fmt.Errorf("check pending request: %w", err)
	} else if pending {
		return request.TeamRequest{}, fmt.Errorf("%w: user=%s team=%s", ErrDuplicateRequest, userID, teamID)
	}

	requestID, err := s.idGen.NewID()
	if err != nil {
		return request.TeamRequest{}, fmt.Errorf("generate request id: %w", err)
	}

	edge := request.TeamRequest{
		ID:            requestID,
		CompetitionID: comp.ID,
		TeamID:        teamID,
		UserID:        userID,
		Kind:          kind,
		Status:        request.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := edge.Validate(); err != nil {
		return request.TeamRequest{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.requestRepo.Create(ctx, edge); err != nil {
		if errors.Is(err, request.ErrPendingExists) {
			return request.TeamRequest{}, fmt.Errorf("%w: user=%s team=%s", ErrDuplicateRequest, userID, teamID)
		}
		return request.TeamRequest{}, fmt.Errorf("create request: %w", err)
	}

	s.logger.InfoContext(ctx, "request created",
		"request_id", edge.ID,
		"team_id", teamID,
		"user_id", userID,
		"kind", kind,
	)

	return edge, nil
}

// authorizeResponder enforces who may answer an edge: the invited user for
// invitations, the team captain for join requests.
func (s *RequestService) authorizeResponder(ctx context.Context, edge request.TeamRequest, actor user.Principal) error {
	switch edge.Kind {
	case request.KindInvite:
		if actor.ID != edge.UserID {
			return fmt.Errorf("%w: only the invited user can answer invitation %s", ErrForbidden, edge.ID)
		}
	case request.KindJoinRequest:
		t, exists, err := s.teamRepo.GetByID(ctx, edge.TeamID)
		if err != nil {
			return fmt.Errorf("get team: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: team=%s", ErrNotFound, edge.TeamID)
		}
		if !t.IsCaptain(actor.ID) {
			return fmt.Errorf("%w: only the captain can answer join request %s", ErrForbidden, edge.ID)
		}
	}

	return nil
}

// rejectionReason maps an expected membership failure to the short token
// recorded on the finalized edge. Unexpected errors keep the edge pending.
func rejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		return reasonCapacityExceeded, true
	case errors.Is(err, ErrWindowClosed):
		return reasonWindowClosed, true
	case errors.Is(err, ErrAlreadyMember):
		return reasonAlreadyMember, true
	default:
		return "", false
	}
}
