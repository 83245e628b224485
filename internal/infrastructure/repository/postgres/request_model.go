package postgres

import (
	"database/sql"
	"time"

	"github.com/openbracket/arena/internal/domain/request"
)

type requestTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	CompetitionID string         `db:"competition_public_id"`
	TeamID        string         `db:"team_public_id"`
	UserID        string         `db:"user_id"`
	Kind          string         `db:"kind"`
	Status        string         `db:"status"`
	Reason        sql.NullString `db:"reason"`
	CreatedAt     time.Time      `db:"created_at"`
	ResolvedAt    sql.NullTime   `db:"resolved_at"`
}

func toTeamRequest(row requestTableModel) request.TeamRequest {
	item := request.TeamRequest{
		ID:            row.PublicID,
		CompetitionID: row.CompetitionID,
		TeamID:        row.TeamID,
		UserID:        row.UserID,
		Kind:          request.Kind(row.Kind),
		Status:        request.Status(row.Status),
		CreatedAt:     row.CreatedAt,
	}
	if row.Reason.Valid {
		item.Reason = row.Reason.String
	}
	if row.ResolvedAt.Valid {
		resolvedAt := row.ResolvedAt.Time
		item.ResolvedAt = &resolvedAt
	}

	return item
}
