package competition

import (
	"fmt"
	"time"
)

// Status is the competition lifecycle state. Transitions are monotonic
// except for cancelled, which is reachable from any non-terminal state.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusRegistration Status = "registration"
	StatusInProgress   Status = "in_progress"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// Competition is a single event teams and individuals apply to.
// It is authoritative over the registration window and capacity.
type Competition struct {
	ID                string
	Name              string
	Discipline        string
	Format            string
	OwnerID           string
	Region            string
	Status            Status
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	TeamCapacity      int
	MaxTeamSize       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c Competition) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("competition id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("competition name is required")
	}
	if c.Discipline == "" {
		return fmt.Errorf("competition discipline is required")
	}
	if !c.RegistrationEnd.After(c.RegistrationStart) {
		return fmt.Errorf("registration window must end after it starts")
	}
	if c.MaxTeamSize < 1 {
		return fmt.Errorf("competition max team size must be at least 1")
	}

	return nil
}

// RegistrationOpen reports whether the registration window [start, end)
// contains now and the competition is accepting entries.
func (c Competition) RegistrationOpen(now time.Time) bool {
	if c.Status != StatusRegistration {
		return false
	}

	return !now.Before(c.RegistrationStart) && now.Before(c.RegistrationEnd)
}

// Terminal reports whether the competition can no longer change status.
func (c Competition) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusCancelled
}

// CanTransitionTo enforces the monotonic status order; cancelled is an
// escape hatch from every non-terminal state.
func (c Competition) CanTransitionTo(next Status) bool {
	if c.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}

	order := map[Status]int{
		StatusDraft:        0,
		StatusRegistration: 1,
		StatusInProgress:   2,
		StatusCompleted:    3,
	}

	current, ok := order[c.Status]
	if !ok {
		return false
	}
	target, ok := order[next]
	if !ok {
		return false
	}

	return target == current+1
}
