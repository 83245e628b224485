package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openbracket/arena/internal/domain/application"
)

const applicationColumns = `
public_id, competition_public_id, team_public_id, submitter_id, status,
decided_by, created_at, decided_at`

const registrationColumns = `
public_id, application_public_id, competition_public_id, team_public_id,
submitter_id, status, version, created_at, updated_at`

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) GetByID(ctx context.Context, applicationID string) (application.Application, bool, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE public_id = $1`

	var row applicationTableModel
	if err := r.db.GetContext(ctx, &row, query, applicationID); err != nil {
		if isNotFound(err) {
			return application.Application{}, false, nil
		}
		return application.Application{}, false, fmt.Errorf("get application: %w", err)
	}

	return toApplication(row), true, nil
}

func (r *ApplicationRepository) ListByCompetition(ctx context.Context, competitionID string) ([]application.Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE competition_public_id = $1
ORDER BY created_at, public_id`

	var rows []applicationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, competitionID); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	out := make([]application.Application, 0, len(rows))
	for _, row := range rows {
		out = append(out, toApplication(row))
	}

	return out, nil
}

func (r *ApplicationRepository) ActiveByTeam(ctx context.Context, teamID, competitionID string) (application.Application, bool, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE team_public_id = $1
  AND competition_public_id = $2
  AND status <> 'rejected'`

	var row applicationTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID, competitionID); err != nil {
		if isNotFound(err) {
			return application.Application{}, false, nil
		}
		return application.Application{}, false, fmt.Errorf("get active application by team: %w", err)
	}

	return toApplication(row), true, nil
}

func (r *ApplicationRepository) ActiveBySubmitter(ctx context.Context, submitterID, competitionID string) (application.Application, bool, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE submitter_id = $1
  AND team_public_id IS NULL
  AND competition_public_id = $2
  AND status <> 'rejected'`

	var row applicationTableModel
	if err := r.db.GetContext(ctx, &row, query, submitterID, competitionID); err != nil {
		if isNotFound(err) {
			return application.Application{}, false, nil
		}
		return application.Application{}, false, fmt.Errorf("get active application by submitter: %w", err)
	}

	return toApplication(row), true, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, item application.Application) error {
	const query = `
INSERT INTO applications (public_id, competition_public_id, team_public_id, submitter_id, status, created_at)
VALUES (:public_id, :competition_public_id, :team_public_id, :submitter_id, :status, :created_at)`

	boundSQL, boundArgs, err := sqlx.Named(query, map[string]any{
		"public_id":             item.ID,
		"competition_public_id": item.CompetitionID,
		"team_public_id":        nullString(item.TeamID),
		"submitter_id":          item.SubmitterID,
		"status":                string(item.Status),
		"created_at":            item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert application query: %w", err)
	}
	boundSQL = r.db.Rebind(boundSQL)

	if _, err := r.db.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// Decide moves a pending application into a terminal status. The update is
// guarded on status so two reviewers cannot both win; the loser gets the
// row as the winner left it and won=false.
func (r *ApplicationRepository) Decide(ctx context.Context, applicationID string, status application.Status, decidedBy string) (application.Application, bool, error) {
	query := `
UPDATE applications
SET status = $2,
    decided_by = $3,
    decided_at = $4
WHERE public_id = $1
  AND status = 'pending'
RETURNING ` + applicationColumns

	var row applicationTableModel
	err := r.db.GetContext(ctx, &row, query, applicationID, string(status), decidedBy, time.Now().UTC())
	if err == nil {
		return toApplication(row), true, nil
	}
	if !isNotFound(err) {
		return application.Application{}, false, fmt.Errorf("decide application: %w", err)
	}

	item, found, err := r.GetByID(ctx, applicationID)
	if err != nil {
		return application.Application{}, false, err
	}
	if !found {
		return application.Application{}, false, nil
	}

	return item, false, nil
}

func (r *ApplicationRepository) GetRegistrationByID(ctx context.Context, registrationID string) (application.Registration, bool, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE public_id = $1`

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, registrationID); err != nil {
		if isNotFound(err) {
			return application.Registration{}, false, nil
		}
		return application.Registration{}, false, fmt.Errorf("get registration: %w", err)
	}

	return toRegistration(row), true, nil
}

func (r *ApplicationRepository) GetRegistrationByApplication(ctx context.Context, applicationID string) (application.Registration, bool, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE application_public_id = $1`

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, applicationID); err != nil {
		if isNotFound(err) {
			return application.Registration{}, false, nil
		}
		return application.Registration{}, false, fmt.Errorf("get registration by application: %w", err)
	}

	return toRegistration(row), true, nil
}

func (r *ApplicationRepository) ListRegistrationsByCompetition(ctx context.Context, competitionID string) ([]application.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE competition_public_id = $1
ORDER BY created_at, public_id`

	var rows []registrationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, competitionID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	out := make([]application.Registration, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRegistration(row))
	}

	return out, nil
}

func (r *ApplicationRepository) CreateRegistration(ctx context.Context, item application.Registration) error {
	const query = `
INSERT INTO registrations (public_id, application_public_id, competition_public_id, team_public_id, submitter_id, status, version, created_at)
VALUES (:public_id, :application_public_id, :competition_public_id, :team_public_id, :submitter_id, :status, 1, :created_at)`

	boundSQL, boundArgs, err := sqlx.Named(query, map[string]any{
		"public_id":             item.ID,
		"application_public_id": item.ApplicationID,
		"competition_public_id": item.CompetitionID,
		"team_public_id":        nullString(item.TeamID),
		"submitter_id":          item.SubmitterID,
		"status":                string(item.Status),
		"created_at":            item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert registration query: %w", err)
	}
	boundSQL = r.db.Rebind(boundSQL)

	if _, err := r.db.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	return nil
}

// SaveRegistration is the version-guarded write: the row only updates while
// it still carries the version the caller read.
func (r *ApplicationRepository) SaveRegistration(ctx context.Context, item application.Registration) (application.Registration, error) {
	const query = `
UPDATE registrations
SET status = $3,
    version = version + 1,
    updated_at = NOW()
WHERE public_id = $1
  AND version = $2`

	result, err := r.db.ExecContext(ctx, query, item.ID, item.Version, string(item.Status))
	if err != nil {
		return application.Registration{}, fmt.Errorf("update registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Registration{}, fmt.Errorf("read update registration result: %w", err)
	}
	if affected == 0 {
		return application.Registration{}, application.ErrVersionConflict
	}

	item.Version++
	return item, nil
}
