package postgres

import (
	"time"

	"github.com/lib/pq"
)

type teamTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	CompetitionID string         `db:"competition_public_id"`
	Name          string         `db:"name"`
	Status        string         `db:"status"`
	RequiredRoles pq.StringArray `db:"required_roles"`
	Version       int64          `db:"version"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type teamMemberTableModel struct {
	ID        int64     `db:"id"`
	TeamID    string    `db:"team_public_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	IsCaptain bool      `db:"is_captain"`
	JoinedAt  time.Time `db:"joined_at"`
}
