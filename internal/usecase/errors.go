package usecase

import (
	"errors"
	"fmt"
)

// Taxonomy roots. Handlers map these to transport status codes with
// errors.Is, so every business failure below wraps exactly one root.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrWindowClosed          = errors.New("registration window closed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Expected business outcomes. These are first-class results, never panics:
// a full team or a closed window is a normal answer, not an exception.
var (
	ErrCapacityExceeded     = fmt.Errorf("%w: team capacity exceeded", ErrConflict)
	ErrAlreadyMember        = fmt.Errorf("%w: user is already a member of this team", ErrConflict)
	ErrNotMember            = fmt.Errorf("%w: user is not a member of this team", ErrConflict)
	ErrCaptainCannotLeave   = fmt.Errorf("%w: captaincy must be transferred before the captain can leave", ErrConflict)
	ErrDuplicateRequest     = fmt.Errorf("%w: a pending request already exists for this user and team", ErrConflict)
	ErrTeamFull             = fmt.Errorf("%w: team roster is already complete", ErrConflict)
	ErrNotPending           = fmt.Errorf("%w: no longer pending", ErrConflict)
	ErrDuplicateApplication = fmt.Errorf("%w: an active application already exists for this entry", ErrConflict)
	ErrIneligibleTeam       = fmt.Errorf("%w: team roster is not complete", ErrConflict)
	ErrRegistrationClosed   = fmt.Errorf("%w: competition is not accepting entries", ErrWindowClosed)
)
