package application

import (
	"fmt"
	"time"
)

// Status is the application state machine: pending resolves once into
// approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is the reviewer-supplied resolution for a pending application.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

// Application is a team's or individual's bid for a competition slot. At
// most one non-rejected application exists per (team, competition) or
// (user, competition) pair.
type Application struct {
	ID            string
	CompetitionID string
	// TeamID is empty for individual entries.
	TeamID      string
	SubmitterID string
	Status      Status
	DecidedBy   string
	CreatedAt   time.Time
	DecidedAt   *time.Time
}

func (a Application) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("application id is required")
	}
	if a.CompetitionID == "" {
		return fmt.Errorf("application competition id is required")
	}
	if a.SubmitterID == "" {
		return fmt.Errorf("application submitter id is required")
	}

	return nil
}

// Pending reports whether the application can still be decided.
func (a Application) Pending() bool {
	return a.Status == StatusPending
}

// TeamBased reports whether the bid is backed by a team rather than an
// individual.
func (a Application) TeamBased() bool {
	return a.TeamID != ""
}

// RegistrationStatus is the admitted-participant state. It mirrors approval
// and can further move to withdrawn by the original submitter.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationWithdrawn RegistrationStatus = "withdrawn"
)

// Registration is the admitted-participant record produced once an
// application is approved.
type Registration struct {
	ID            string
	ApplicationID string
	CompetitionID string
	TeamID        string
	SubmitterID   string
	Status        RegistrationStatus
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r Registration) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("registration id is required")
	}
	if r.ApplicationID == "" {
		return fmt.Errorf("registration application id is required")
	}
	if r.CompetitionID == "" {
		return fmt.Errorf("registration competition id is required")
	}
	if r.SubmitterID == "" {
		return fmt.Errorf("registration submitter id is required")
	}

	return nil
}
