package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openbracket/arena/internal/domain/request"
)

type RequestRepository struct {
	mu    sync.Mutex
	items map[string]request.TeamRequest
	now   func() time.Time
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		items: make(map[string]request.TeamRequest),
		now:   time.Now,
	}
}

func (r *RequestRepository) GetByID(_ context.Context, requestID string) (request.TeamRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[requestID]
	if !ok {
		return request.TeamRequest{}, false, nil
	}

	return item, true, nil
}

func (r *RequestRepository) ListByTeam(_ context.Context, teamID string) ([]request.TeamRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]request.TeamRequest, 0)
	for _, item := range r.items {
		if item.TeamID == teamID {
			out = append(out, item)
		}
	}
	sortRequests(out)

	return out, nil
}

func (r *RequestRepository) ListByUser(_ context.Context, userID string) ([]request.TeamRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]request.TeamRequest, 0)
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sortRequests(out)

	return out, nil
}

func (r *RequestRepository) PendingByUserAndTeam(_ context.Context, userID, teamID string) (request.TeamRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.pendingByUserAndTeamLocked(userID, teamID)
	return item, ok, nil
}

// Create enforces the one-pending-edge-per-pair invariant atomically.
func (r *RequestRepository) Create(_ context.Context, item request.TeamRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pendingByUserAndTeamLocked(item.UserID, item.TeamID); ok {
		return request.ErrPendingExists
	}

	r.items[item.ID] = item
	return nil
}

// Resolve moves a pending edge into a terminal state. The bool reports
// whether this call won the transition; a lost race returns the edge as it
// stands.
func (r *RequestRepository) Resolve(_ context.Context, requestID string, status request.Status, reason string) (request.TeamRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[requestID]
	if !ok {
		return request.TeamRequest{}, false, nil
	}
	if item.Status != request.StatusPending {
		return item, false, nil
	}

	resolvedAt := r.now().UTC()
	item.Status = status
	item.Reason = reason
	item.ResolvedAt = &resolvedAt
	r.items[requestID] = item

	return item, true, nil
}

func (r *RequestRepository) pendingByUserAndTeamLocked(userID, teamID string) (request.TeamRequest, bool) {
	for _, item := range r.items {
		if item.UserID == userID && item.TeamID == teamID && item.Status == request.StatusPending {
			return item, true
		}
	}

	return request.TeamRequest{}, false
}

func sortRequests(items []request.TeamRequest) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
