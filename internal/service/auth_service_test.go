package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newAuthService() (*AuthService, auth.SessionStore) {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            4, // keep the tests fast
		},
	}
	sessions := auth.NewMemorySessionStore()
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:     repository.NewMemoryUserRepository(),
		SessionStore: sessions,
	})
	return svc, sessions
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "password123",
	}
}

func errCode(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func TestRegisterLoginLogout(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService()
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || token == "" || exp.IsZero() {
		t.Fatalf("register returned incomplete result: %+v token=%q", user, token)
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password stored in plaintext")
	}

	loggedIn, loginToken, _, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID || loginToken == "" {
		t.Fatalf("login returned wrong user or empty token")
	}

	if err := svc.Logout(ctx, loginToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// the revoked session must be rejected by the middleware path
	claims, err := svc.TokenManager().ParseToken(loginToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sessions := svcSessions(svc)
	revoked, err := sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("logout did not revoke the session")
	}
}

func svcSessions(svc *AuthService) auth.SessionStore {
	return svc.sessions
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"blank username", func(in *RegisterInput) { in.Username = " " }},
		{"blank email", func(in *RegisterInput) { in.Email = "" }},
		{"blank name", func(in *RegisterInput) { in.Name = "" }},
		{"blank password", func(in *RegisterInput) { in.Password = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := registerInput()
			tc.mutate(&input)
			if _, _, _, err := svc.Register(ctx, input); errCode(err) != "VALIDATION_FAILED" {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService()
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	dupUsername := registerInput()
	dupUsername.Email = "other@example.com"
	if _, _, _, err := svc.Register(ctx, dupUsername); errCode(err) != "CONFLICT" {
		t.Fatalf("duplicate username: expected conflict, got %v", err)
	}

	dupEmail := registerInput()
	dupEmail.Username = "alice2"
	if _, _, _, err := svc.Register(ctx, dupEmail); errCode(err) != "CONFLICT" {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	svc, _ := newAuthService()
	ctx := context.Background()

	if _, _, _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "alice", "wrong-password"); errCode(err) != "UNAUTHORIZED" {
		t.Fatalf("wrong password: expected unauthorized, got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "nobody", "password123"); errCode(err) != "UNAUTHORIZED" {
		t.Fatalf("unknown user: expected unauthorized, got %v", err)
	}
}
