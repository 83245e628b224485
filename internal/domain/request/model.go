package request

import (
	"fmt"
	"time"
)

// Kind tags the direction of the edge between a user and a team.
type Kind string

const (
	KindInvite      Kind = "invite"
	KindJoinRequest Kind = "join_request"
)

// Status is the edge state machine: pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Decision is the caller-supplied resolution for a pending edge.
type Decision string

const (
	DecisionAccept Decision = "accepted"
	DecisionReject Decision = "rejected"
)

// TeamRequest is a directed invitation or join request between a user and a
// team. At most one pending edge exists per (user, team) pair.
type TeamRequest struct {
	ID            string
	CompetitionID string
	TeamID        string
	UserID        string
	Kind          Kind
	Status        Status
	// Reason records why a resolution landed where it did, e.g. an accept
	// that lost the race for the last slot finishes rejected with the
	// capacity failure here.
	Reason    string
	CreatedAt time.Time
	ResolvedAt *time.Time
}

func (r TeamRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request id is required")
	}
	if r.CompetitionID == "" {
		return fmt.Errorf("request competition id is required")
	}
	if r.TeamID == "" {
		return fmt.Errorf("request team id is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("request user id is required")
	}
	switch r.Kind {
	case KindInvite, KindJoinRequest:
	default:
		return fmt.Errorf("unknown request kind %q", r.Kind)
	}

	return nil
}

// Pending reports whether the edge can still be resolved.
func (r TeamRequest) Pending() bool {
	return r.Status == StatusPending
}
