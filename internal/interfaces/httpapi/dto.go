package httpapi

import (
	"time"

	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/domain/request"
	"github.com/openbracket/arena/internal/domain/team"
)

type competitionDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Discipline        string    `json:"discipline"`
	Format            string    `json:"format,omitempty"`
	Region            string    `json:"region,omitempty"`
	Status            string    `json:"status"`
	RegistrationStart time.Time `json:"registrationStart"`
	RegistrationEnd   time.Time `json:"registrationEnd"`
	TeamCapacity      int       `json:"teamCapacity"`
	MaxTeamSize       int       `json:"maxTeamSize"`
}

func competitionToDTO(c competition.Competition) competitionDTO {
	return competitionDTO{
		ID:                c.ID,
		Name:              c.Name,
		Discipline:        c.Discipline,
		Format:            c.Format,
		Region:            c.Region,
		Status:            string(c.Status),
		RegistrationStart: c.RegistrationStart,
		RegistrationEnd:   c.RegistrationEnd,
		TeamCapacity:      c.TeamCapacity,
		MaxTeamSize:       c.MaxTeamSize,
	}
}

type teamMemberDTO struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role,omitempty"`
	IsCaptain bool      `json:"isCaptain"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type teamDTO struct {
	ID            string          `json:"id"`
	CompetitionID string          `json:"competitionId"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Members       []teamMemberDTO `json:"members"`
	RequiredRoles []string        `json:"requiredRoles,omitempty"`
}

func teamToDTO(t team.Team) teamDTO {
	members := make([]teamMemberDTO, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, teamMemberDTO{
			UserID:    m.UserID,
			Role:      m.Role,
			IsCaptain: m.IsCaptain,
			JoinedAt:  m.JoinedAt,
		})
	}

	return teamDTO{
		ID:            t.ID,
		CompetitionID: t.CompetitionID,
		Name:          t.Name,
		Status:        string(t.Status),
		Members:       members,
		RequiredRoles: t.RequiredRoles,
	}
}

type requestDTO struct {
	ID            string     `json:"id"`
	CompetitionID string     `json:"competitionId"`
	TeamID        string     `json:"teamId"`
	UserID        string     `json:"userId"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
}

func requestToDTO(r request.TeamRequest) requestDTO {
	return requestDTO{
		ID:            r.ID,
		CompetitionID: r.CompetitionID,
		TeamID:        r.TeamID,
		UserID:        r.UserID,
		Kind:          string(r.Kind),
		Status:        string(r.Status),
		Reason:        r.Reason,
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
	}
}

type applicationDTO struct {
	ID            string     `json:"id"`
	CompetitionID string     `json:"competitionId"`
	TeamID        string     `json:"teamId,omitempty"`
	SubmitterID   string     `json:"submitterId"`
	Status        string     `json:"status"`
	DecidedBy     string     `json:"decidedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
}

func applicationToDTO(a application.Application) applicationDTO {
	return applicationDTO{
		ID:            a.ID,
		CompetitionID: a.CompetitionID,
		TeamID:        a.TeamID,
		SubmitterID:   a.SubmitterID,
		Status:        string(a.Status),
		DecidedBy:     a.DecidedBy,
		CreatedAt:     a.CreatedAt,
		DecidedAt:     a.DecidedAt,
	}
}

type registrationDTO struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CompetitionID string    `json:"competitionId"`
	TeamID        string    `json:"teamId,omitempty"`
	SubmitterID   string    `json:"submitterId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func registrationToDTO(r application.Registration) registrationDTO {
	return registrationDTO{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		CompetitionID: r.CompetitionID,
		TeamID:        r.TeamID,
		SubmitterID:   r.SubmitterID,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type createTeamRequest struct {
	CompetitionID string   `json:"competitionId" validate:"required"`
	Name          string   `json:"name" validate:"required,min=2,max=64"`
	CaptainRole   string   `json:"captainRole" validate:"omitempty,max=32"`
	RequiredRoles []string `json:"requiredRoles" validate:"omitempty,dive,min=1,max=32"`
}

type inviteMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type respondToRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

type transferCaptaincyRequest struct {
	ToUserID string `json:"toUserId" validate:"required"`
}

type submitApplicationRequest struct {
	CompetitionID string `json:"competitionId" validate:"required"`
	TeamID        string `json:"teamId" validate:"omitempty"`
}

type decideApplicationRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

type transitionCompetitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft registration in_progress completed cancelled"`
}
