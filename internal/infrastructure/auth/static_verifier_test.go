package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/openbracket/arena/internal/domain/user"
	"github.com/openbracket/arena/internal/usecase"
)

func TestStaticVerifier_ResolvesPrincipal(t *testing.T) {
	verifier, err := NewStaticVerifier(map[string]string{
		"tok-admin":       "user-ada:admin:eu-west",
		"tok-participant": "user-linus",
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	principal, err := verifier.VerifyAccessToken(context.Background(), "tok-admin")
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if principal.ID != "user-ada" {
		t.Fatalf("unexpected user id: %s", principal.ID)
	}
	if principal.Role != user.RoleAdmin {
		t.Fatalf("unexpected role: %s", principal.Role)
	}
	if principal.Region != "eu-west" {
		t.Fatalf("unexpected region: %s", principal.Region)
	}

	principal, err = verifier.VerifyAccessToken(context.Background(), "tok-participant")
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if principal.Role != user.RoleParticipant {
		t.Fatalf("expected participant default role, got %s", principal.Role)
	}
}

func TestStaticVerifier_UnknownToken(t *testing.T) {
	verifier, err := NewStaticVerifier(nil)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	_, err = verifier.VerifyAccessToken(context.Background(), "missing")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestStaticVerifier_RejectsInvalidRole(t *testing.T) {
	if _, err := NewStaticVerifier(map[string]string{"tok": "user-x:warlord"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
