package request

import (
	"context"
	"errors"
)

// ErrPendingExists is returned by Create when a pending edge already exists
// for the same (user, team) pair. Repositories enforce this atomically.
var ErrPendingExists = errors.New("pending request already exists for user and team")

// Repository describes request-edge persistence needs from use cases.
// Create must reject a second pending edge for the same (user, team) pair;
// Resolve must only move a pending edge, reporting whether it won the write.
type Repository interface {
	GetByID(ctx context.Context, requestID string) (TeamRequest, bool, error)
	ListByTeam(ctx context.Context, teamID string) ([]TeamRequest, error)
	ListByUser(ctx context.Context, userID string) ([]TeamRequest, error)
	PendingByUserAndTeam(ctx context.Context, userID, teamID string) (TeamRequest, bool, error)
	Create(ctx context.Context, item TeamRequest) error
	Resolve(ctx context.Context, requestID string, status Status, reason string) (TeamRequest, bool, error)
}
