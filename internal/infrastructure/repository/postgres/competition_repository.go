package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/openbracket/arena/internal/domain/competition"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	const query = `
SELECT public_id, name, discipline, format, owner_id, region, status,
       registration_start, registration_end, team_capacity, max_team_size,
       created_at, updated_at
FROM competitions
ORDER BY registration_start, public_id`

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCompetition(row))
	}

	return out, nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	const query = `
SELECT public_id, name, discipline, format, owner_id, region, status,
       registration_start, registration_end, team_capacity, max_team_size,
       created_at, updated_at
FROM competitions
WHERE public_id = $1`

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, competitionID); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition: %w", err)
	}

	return toCompetition(row), true, nil
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	const query = `
INSERT INTO competitions (
    public_id, name, discipline, format, owner_id, region, status,
    registration_start, registration_end, team_capacity, max_team_size
) VALUES (
    :public_id, :name, :discipline, :format, :owner_id, :region, :status,
    :registration_start, :registration_end, :team_capacity, :max_team_size
)`

	args := map[string]any{
		"public_id":          item.ID,
		"name":               item.Name,
		"discipline":         item.Discipline,
		"format":             item.Format,
		"owner_id":           item.OwnerID,
		"region":             item.Region,
		"status":             string(item.Status),
		"registration_start": item.RegistrationStart,
		"registration_end":   item.RegistrationEnd,
		"team_capacity":      item.TeamCapacity,
		"max_team_size":      item.MaxTeamSize,
	}

	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind insert competition query: %w", err)
	}
	boundSQL = r.db.Rebind(boundSQL)
	if _, err := r.db.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}

	return nil
}

func (r *CompetitionRepository) UpdateStatus(ctx context.Context, competitionID string, status competition.Status) error {
	const query = `
UPDATE competitions
SET status = $1, updated_at = NOW()
WHERE public_id = $2`

	if _, err := r.db.ExecContext(ctx, query, string(status), competitionID); err != nil {
		return fmt.Errorf("update competition status: %w", err)
	}

	return nil
}

func toCompetition(row competitionTableModel) competition.Competition {
	return competition.Competition{
		ID:                row.PublicID,
		Name:              row.Name,
		Discipline:        row.Discipline,
		Format:            row.Format,
		OwnerID:           row.OwnerID,
		Region:            row.Region,
		Status:            competition.Status(row.Status),
		RegistrationStart: row.RegistrationStart,
		RegistrationEnd:   row.RegistrationEnd,
		TeamCapacity:      row.TeamCapacity,
		MaxTeamSize:       row.MaxTeamSize,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}
