package postgres

import "time"

type competitionTableModel struct {
	ID                int64     `db:"id"`
	PublicID          string    `db:"public_id"`
	Name              string    `db:"name"`
	Discipline        string    `db:"discipline"`
	Format            string    `db:"format"`
	OwnerID           string    `db:"owner_id"`
	Region            string    `db:"region"`
	Status            string    `db:"status"`
	RegistrationStart time.Time `db:"registration_start"`
	RegistrationEnd   time.Time `db:"registration_end"`
	TeamCapacity      int       `db:"team_capacity"`
	MaxTeamSize       int       `db:"max_team_size"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}
