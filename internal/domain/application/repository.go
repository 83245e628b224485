package application

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by SaveRegistration when the stored version
// no longer matches the one the caller read.
var ErrVersionConflict = errors.New("registration version conflict")

// Repository describes application and registration persistence needs from
// use cases. Decide must only move a pending application, reporting whether
// it won the write; SaveRegistration is a compare-and-swap on Version.
type Repository interface {
	GetByID(ctx context.Context, applicationID string) (Application, bool, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Application, error)
	ActiveByTeam(ctx context.Context, teamID, competitionID string) (Application, bool, error)
	ActiveBySubmitter(ctx context.Context, submitterID, competitionID string) (Application, bool, error)
	Create(ctx context.Context, item Application) error
	Decide(ctx context.Context, applicationID string, status Status, decidedBy string) (Application, bool, error)

	GetRegistrationByID(ctx context.Context, registrationID string) (Registration, bool, error)
	GetRegistrationByApplication(ctx context.Context, applicationID string) (Registration, bool, error)
	ListRegistrationsByCompetition(ctx context.Context, competitionID string) ([]Registration, error)
	CreateRegistration(ctx context.Context, item Registration) error
	SaveRegistration(ctx context.Context, item Registration) (Registration, error)
}
