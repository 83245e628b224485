package memory

import (
	"time"

	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/team"
)

const (
	CompetitionIDSpringOpen    = "spring-open-2026"
	CompetitionIDAutumnMasters = "autumn-masters-2026"
)

func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{
			ID:                CompetitionIDSpringOpen,
			Name:              "Spring Open 2026",
			Discipline:        "capture-the-flag",
			Format:            "swiss",
			OwnerID:           "org-aurora",
			Region:            "eu-west",
			Status:            competition.StatusRegistration,
			RegistrationStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			RegistrationEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			TeamCapacity:      64,
			MaxTeamSize:       4,
		},
		{
			ID:                CompetitionIDAutumnMasters,
			Name:              "Autumn Masters 2026",
			Discipline:        "attack-defense",
			Format:            "round-robin",
			OwnerID:           "org-meridian",
			Region:            "us-east",
			Status:            competition.StatusDraft,
			RegistrationStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			RegistrationEnd:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			TeamCapacity:      32,
			MaxTeamSize:       5,
		},
	}
}

func SeedTeams() []team.Team {
	joined := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return []team.Team{
		{
			ID:            "spring-nullptr",
			CompetitionID: CompetitionIDSpringOpen,
			Name:          "Team Nullptr",
			Status:        team.StatusForming,
			Members: []team.Member{
				{UserID: "user-ada", IsCaptain: true, JoinedAt: joined},
				{UserID: "user-linus", JoinedAt: joined.Add(time.Hour)},
			},
			Version: 1,
		},
		{
			ID:            "spring-segfault",
			CompetitionID: CompetitionIDSpringOpen,
			Name:          "Segfault Society",
			Status:        team.StatusForming,
			Members: []team.Member{
				{UserID: "user-grace", IsCaptain: true, JoinedAt: joined},
			},
			Version: 1,
		},
	}
}
