package competition

import "context"

// Repository describes competition persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Competition, error)
	GetByID(ctx context.Context, competitionID string) (Competition, bool, error)
	Create(ctx context.Context, item Competition) error
	UpdateStatus(ctx context.Context, competitionID string, status Status) error
}
