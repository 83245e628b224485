package team

import (
	"fmt"
	"time"
)

// Status is the team lifecycle state. forming and complete flip with
// membership changes; approved and rejected are set only by a decision on
// the team's application.
type Status string

const (
	StatusForming  Status = "forming"
	StatusComplete Status = "complete"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Member is one (user, team) membership entry. A user appears at most once
// per team, and exactly one member is captain whenever the roster is
// non-empty.
type Member struct {
	UserID    string
	Role      string
	IsCaptain bool
	JoinedAt  time.Time
}

// Team is the finest-grained mutable aggregate: its roster and status are
// written under a per-team lock and a version counter guards stale saves.
type Team struct {
	ID            string
	CompetitionID string
	Name          string
	Status        Status
	Members       []Member
	RequiredRoles []string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.CompetitionID == "" {
		return fmt.Errorf("team competition id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	captains := 0
	seen := make(map[string]struct{}, len(t.Members))
	for _, m := range t.Members {
		if m.UserID == "" {
			return fmt.Errorf("team member user id is required")
		}
		if _, ok := seen[m.UserID]; ok {
			return fmt.Errorf("user %s appears more than once in team", m.UserID)
		}
		seen[m.UserID] = struct{}{}
		if m.IsCaptain {
			captains++
		}
	}
	if len(t.Members) > 0 && captains != 1 {
		return fmt.Errorf("team must have exactly one captain, found %d", captains)
	}

	return nil
}

// MemberByUser returns the roster entry for userID.
func (t Team) MemberByUser(userID string) (Member, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}

	return Member{}, false
}

// Captain returns the single captain entry, if the roster is non-empty.
func (t Team) Captain() (Member, bool) {
	for _, m := range t.Members {
		if m.IsCaptain {
			return m, true
		}
	}

	return Member{}, false
}

// IsCaptain reports whether userID holds the captain flag.
func (t Team) IsCaptain(userID string) bool {
	m, ok := t.MemberByUser(userID)
	return ok && m.IsCaptain
}

// RosterSatisfied reports whether the roster fills maxSize and covers every
// required role.
func (t Team) RosterSatisfied(maxSize int) bool {
	if maxSize > 0 && len(t.Members) < maxSize {
		return false
	}

	filled := make(map[string]int, len(t.Members))
	for _, m := range t.Members {
		if m.Role != "" {
			filled[m.Role]++
		}
	}
	for _, role := range t.RequiredRoles {
		if filled[role] == 0 {
			return false
		}
		filled[role]--
	}

	return true
}

// EvaluateStatus recomputes forming/complete from the current roster.
// approved and rejected are sticky: only an application decision sets them,
// and later membership changes never pull a team out of them.
func (t *Team) EvaluateStatus(maxSize int) {
	switch t.Status {
	case StatusApproved, StatusRejected:
		return
	}

	if t.RosterSatisfied(maxSize) {
		t.Status = StatusComplete
		return
	}
	t.Status = StatusForming
}
