package user

import "fmt"

// Role is the coarse authorization role attached to a verified principal.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleRegional    Role = "regional"
	RoleAdmin       Role = "admin"
)

// Principal is an already-authenticated actor as handed over by the auth
// boundary. The engine never validates credentials itself.
type Principal struct {
	ID     string
	Role   Role
	Region string
}

func (p Principal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("principal id is required")
	}
	if p.Role == "" {
		return fmt.Errorf("principal role is required")
	}

	return nil
}

// CanDecide reports whether the principal may approve or reject applications
// for a competition in the given region. Admins decide everywhere, regional
// reviewers only inside their own region, organizers only for competitions
// they own.
func (p Principal) CanDecide(region, ownerID string) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleRegional:
		return region == "" || p.Region == region
	case RoleOrganizer:
		return ownerID != "" && p.ID == ownerID
	default:
		return false
	}
}
