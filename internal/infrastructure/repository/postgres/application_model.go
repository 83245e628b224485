package postgres

import (
	"database/sql"
	"time"

	"github.com/openbracket/arena/internal/domain/application"
)

type applicationTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	CompetitionID string         `db:"competition_public_id"`
	TeamID        sql.NullString `db:"team_public_id"`
	SubmitterID   string         `db:"submitter_id"`
	Status        string         `db:"status"`
	DecidedBy     sql.NullString `db:"decided_by"`
	CreatedAt     time.Time      `db:"created_at"`
	DecidedAt     sql.NullTime   `db:"decided_at"`
}

type registrationTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	ApplicationID string         `db:"application_public_id"`
	CompetitionID string         `db:"competition_public_id"`
	TeamID        sql.NullString `db:"team_public_id"`
	SubmitterID   string         `db:"submitter_id"`
	Status        string         `db:"status"`
	Version       int64          `db:"version"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func toApplication(row applicationTableModel) application.Application {
	item := application.Application{
		ID:            row.PublicID,
		CompetitionID: row.CompetitionID,
		SubmitterID:   row.SubmitterID,
		Status:        application.Status(row.Status),
		CreatedAt:     row.CreatedAt,
	}
	if row.TeamID.Valid {
		item.TeamID = row.TeamID.String
	}
	if row.DecidedBy.Valid {
		item.DecidedBy = row.DecidedBy.String
	}
	if row.DecidedAt.Valid {
		decidedAt := row.DecidedAt.Time
		item.DecidedAt = &decidedAt
	}

	return item
}

func toRegistration(row registrationTableModel) application.Registration {
	item := application.Registration{
		ID:            row.PublicID,
		ApplicationID: row.ApplicationID,
		CompetitionID: row.CompetitionID,
		SubmitterID:   row.SubmitterID,
		Status:        application.RegistrationStatus(row.Status),
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.TeamID.Valid {
		item.TeamID = row.TeamID.String
	}

	return item
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
