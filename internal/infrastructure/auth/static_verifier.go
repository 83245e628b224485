package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/openbracket/arena/internal/domain/user"
	"github.com/openbracket/arena/internal/usecase"
)

// StaticVerifier resolves bearer tokens against a fixed token table. It is
// the dev and test stand-in for a real identity provider; principals are
// encoded as "userID[:role[:region]]".
type StaticVerifier struct {
	principals map[string]user.Principal
}

func NewStaticVerifier(tokens map[string]string) (*StaticVerifier, error) {
	principals := make(map[string]user.Principal, len(tokens))
	for token, encoded := range tokens {
		principal, err := parsePrincipal(encoded)
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", token, err)
		}
		principals[token] = principal
	}

	return &StaticVerifier{principals: principals}, nil
}

func (v *StaticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := v.principals[strings.TrimSpace(token)]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown access token", usecase.ErrUnauthorized)
	}

	return principal, nil
}

func parseRole(raw string) (user.Role, error) {
	role := user.Role(strings.TrimSpace(raw))
	switch role {
	case user.RoleParticipant, user.RoleOrganizer, user.RoleRegional, user.RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func parsePrincipal(encoded string) (user.Principal, error) {
	segments := strings.Split(strings.TrimSpace(encoded), ":")
	if len(segments) > 3 {
		return user.Principal{}, fmt.Errorf("expected userID[:role[:region]], got %q", encoded)
	}

	principal := user.Principal{
		ID:   strings.TrimSpace(segments[0]),
		Role: user.RoleParticipant,
	}
	if principal.ID == "" {
		return user.Principal{}, fmt.Errorf("principal user id is required")
	}
	if len(segments) > 1 && strings.TrimSpace(segments[1]) != "" {
		role, err := parseRole(segments[1])
		if err != nil {
			return user.Principal{}, err
		}
		principal.Role = role
	}
	if len(segments) > 2 {
		principal.Region = strings.TrimSpace(segments[2])
	}

	if err := principal.Validate(); err != nil {
		return user.Principal{}, err
	}

	return principal, nil
}
