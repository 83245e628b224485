package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/openbracket/arena/internal/domain/team"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	const teamQuery = `
SELECT public_id, competition_public_id, name, status, required_roles,
       version, created_at, updated_at
FROM teams
WHERE public_id = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, teamQuery, teamID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	members, err := r.listMembers(ctx, teamID)
	if err != nil {
		return team.Team{}, false, err
	}

	return toTeam(row, members), true, nil
}

func (r *TeamRepository) ListByCompetition(ctx context.Context, competitionID string) ([]team.Team, error) {
	const teamsQuery = `
SELECT public_id, competition_public_id, name, status, required_roles,
       version, created_at, updated_at
FROM teams
WHERE competition_public_id = $1
ORDER BY public_id`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, teamsQuery, competitionID); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		members, err := r.listMembers(ctx, row.PublicID)
		if err != nil {
			return nil, err
		}
		out = append(out, toTeam(row, members))
	}

	return out, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertTeamQuery = `
INSERT INTO teams (public_id, competition_public_id, name, status, required_roles, version)
VALUES (:public_id, :competition_public_id, :name, :status, :required_roles, 1)`

	boundSQL, boundArgs, err := sqlx.Named(insertTeamQuery, map[string]any{
		"public_id":             item.ID,
		"competition_public_id": item.CompetitionID,
		"name":                  item.Name,
		"status":                string(item.Status),
		"required_roles":        pq.StringArray(item.RequiredRoles),
	})
	if err != nil {
		return fmt.Errorf("bind insert team query: %w", err)
	}
	boundSQL = tx.Rebind(boundSQL)
	if _, err := tx.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	if err := insertMembers(ctx, tx, item.ID, item.Members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team create tx: %w", err)
	}

	return nil
}

// Save is the version-guarded write for the whole aggregate: the team row
// only updates while it still carries the version the caller read, and the
// roster is replaced in the same transaction.
func (r *TeamRepository) Save(ctx context.Context, item team.Team) (team.Team, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Team{}, fmt.Errorf("begin tx for team save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const updateTeamQuery = `
UPDATE teams
SET name = :name,
    status = :status,
    required_roles = :required_roles,
    version = version + 1,
    updated_at = NOW()
WHERE public_id = :public_id
  AND version = :version`

	boundSQL, boundArgs, err := sqlx.Named(updateTeamQuery, map[string]any{
		"public_id":      item.ID,
		"name":           item.Name,
		"status":         string(item.Status),
		"required_roles": pq.StringArray(item.RequiredRoles),
		"version":        item.Version,
	})
	if err != nil {
		return team.Team{}, fmt.Errorf("bind update team query: %w", err)
	}
	boundSQL = tx.Rebind(boundSQL)

	result, err := tx.ExecContext(ctx, boundSQL, boundArgs...)
	if err != nil {
		return team.Team{}, fmt.Errorf("update team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return team.Team{}, fmt.Errorf("read update team result: %w", err)
	}
	if affected == 0 {
		return team.Team{}, team.ErrVersionConflict
	}

	const clearMembersQuery = `DELETE FROM team_members WHERE team_public_id = $1`
	if _, err := tx.ExecContext(ctx, clearMembersQuery, item.ID); err != nil {
		return team.Team{}, fmt.Errorf("clear team members: %w", err)
	}
	if err := insertMembers(ctx, tx, item.ID, item.Members); err != nil {
		return team.Team{}, err
	}

	if err := tx.Commit(); err != nil {
		return team.Team{}, fmt.Errorf("commit team save tx: %w", err)
	}

	item.Version++
	return item, nil
}

func (r *TeamRepository) listMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	const membersQuery = `
SELECT team_public_id, user_id, role, is_captain, joined_at
FROM team_members
WHERE team_public_id = $1
ORDER BY joined_at, id`

	var rows []teamMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, membersQuery, teamID); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}

	members := make([]team.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, team.Member{
			UserID:    row.UserID,
			Role:      row.Role,
			IsCaptain: row.IsCaptain,
			JoinedAt:  row.JoinedAt,
		})
	}

	return members, nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, teamID string, members []team.Member) error {
	const insertMemberQuery = `
INSERT INTO team_members (team_public_id, user_id, role, is_captain, joined_at)
VALUES (:team_public_id, :user_id, :role, :is_captain, :joined_at)`

	for _, member := range members {
		boundSQL, boundArgs, err := sqlx.Named(insertMemberQuery, map[string]any{
			"team_public_id": teamID,
			"user_id":        member.UserID,
			"role":           member.Role,
			"is_captain":     member.IsCaptain,
			"joined_at":      member.JoinedAt,
		})
		if err != nil {
			return fmt.Errorf("bind insert team member user=%s query: %w", member.UserID, err)
		}
		boundSQL = tx.Rebind(boundSQL)
		if _, err := tx.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
			return fmt.Errorf("insert team member user=%s: %w", member.UserID, err)
		}
	}

	return nil
}

func toTeam(row teamTableModel, members []team.Member) team.Team {
	return team.Team{
		ID:            row.PublicID,
		CompetitionID: row.CompetitionID,
		Name:          row.Name,
		Status:        team.Status(row.Status),
		Members:       members,
		RequiredRoles: row.RequiredRoles,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
