package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openbracket/arena/internal/domain/request"
)

const requestColumns = `
public_id, competition_public_id, team_public_id, user_id, kind, status,
reason, created_at, resolved_at`

// requestsPendingConstraint is the partial unique index that allows at most
// one pending edge per (user, team) pair.
const requestsPendingConstraint = "team_requests_pending_unique"

type RequestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) GetByID(ctx context.Context, requestID string) (request.TeamRequest, bool, error) {
	query := `SELECT ` + requestColumns + ` FROM team_requests WHERE public_id = $1`

	var row requestTableModel
	if err := r.db.GetContext(ctx, &row, query, requestID); err != nil {
		if isNotFound(err) {
			return request.TeamRequest{}, false, nil
		}
		return request.TeamRequest{}, false, fmt.Errorf("get team request: %w", err)
	}

	return toTeamRequest(row), true, nil
}

func (r *RequestRepository) ListByTeam(ctx context.Context, teamID string) ([]request.TeamRequest, error) {
	query := `SELECT ` + requestColumns + `
FROM team_requests
WHERE team_public_id = $1
ORDER BY created_at, public_id`

	var rows []requestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list team requests by team: %w", err)
	}

	return toTeamRequests(rows), nil
}

func (r *RequestRepository) ListByUser(ctx context.Context, userID string) ([]request.TeamRequest, error) {
	query := `SELECT ` + requestColumns + `
FROM team_requests
WHERE user_id = $1
ORDER BY created_at, public_id`

	var rows []requestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list team requests by user: %w", err)
	}

	return toTeamRequests(rows), nil
}

func (r *RequestRepository) PendingByUserAndTeam(ctx context.Context, userID, teamID string) (request.TeamRequest, bool, error) {
	query := `SELECT ` + requestColumns + `
FROM team_requests
WHERE user_id = $1
  AND team_public_id = $2
  AND status = 'pending'`

	var row requestTableModel
	if err := r.db.GetContext(ctx, &row, query, userID, teamID); err != nil {
		if isNotFound(err) {
			return request.TeamRequest{}, false, nil
		}
		return request.TeamRequest{}, false, fmt.Errorf("get pending team request: %w", err)
	}

	return toTeamRequest(row), true, nil
}

func (r *RequestRepository) Create(ctx context.Context, item request.TeamRequest) error {
	const query = `
INSERT INTO team_requests (public_id, competition_public_id, team_public_id, user_id, kind, status, created_at)
VALUES (:public_id, :competition_public_id, :team_public_id, :user_id, :kind, :status, :created_at)`

	boundSQL, boundArgs, err := sqlx.Named(query, map[string]any{
		"public_id":             item.ID,
		"competition_public_id": item.CompetitionID,
		"team_public_id":        item.TeamID,
		"user_id":               item.UserID,
		"kind":                  string(item.Kind),
		"status":                string(item.Status),
		"created_at":            item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert team request query: %w", err)
	}
	boundSQL = r.db.Rebind(boundSQL)

	if _, err := r.db.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err, requestsPendingConstraint) {
			return request.ErrPendingExists
		}
		return fmt.Errorf("insert team request: %w", err)
	}

	return nil
}

// Resolve moves a pending edge to a terminal status. The update is guarded
// on status so concurrent resolvers cannot both win; the second caller gets
// the row as the winner left it and won=false.
func (r *RequestRepository) Resolve(ctx context.Context, requestID string, status request.Status, reason string) (request.TeamRequest, bool, error) {
	query := `
UPDATE team_requests
SET status = $2,
    reason = $3,
    resolved_at = $4
WHERE public_id = $1
  AND status = 'pending'
RETURNING ` + requestColumns

	var row requestTableModel
	err := r.db.GetContext(ctx, &row, query, requestID, string(status), reason, time.Now().UTC())
	if err == nil {
		return toTeamRequest(row), true, nil
	}
	if !isNotFound(err) {
		return request.TeamRequest{}, false, fmt.Errorf("resolve team request: %w", err)
	}

	item, found, err := r.GetByID(ctx, requestID)
	if err != nil {
		return request.TeamRequest{}, false, err
	}
	if !found {
		return request.TeamRequest{}, false, nil
	}

	return item, false, nil
}

func toTeamRequests(rows []requestTableModel) []request.TeamRequest {
	out := make([]request.TeamRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTeamRequest(row))
	}

	return out
}
