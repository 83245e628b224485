package team

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by Save when the stored version no longer
// matches the version the caller read. The caller re-reads and retries.
var ErrVersionConflict = errors.New("team version conflict")

// Repository describes team persistence needs from use cases. Save is a
// compare-and-swap: it writes the aggregate only while the stored row still
// carries team.Version, then bumps the counter.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Team, error)
	Create(ctx context.Context, item Team) error
	Save(ctx context.Context, item Team) (Team, error)
}
