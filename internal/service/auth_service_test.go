package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/nile-labs/registration-service/internal/config"
	"github.com/nile-labs/registration-service/internal/repository"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 0,
		BcryptCost:            bcrypt.MinCost,
	}
}

func seedUser(t *testing.T, repo repository.UserRepository, email, password string) {
	t.Helper()
	_, err := repo.Create(context.Background(), repository.CreateUserParams{
		Name:      "Khaled",
		Email:     email,
		Password:  password,
		Latitude:  30.0444,
		Longitude: 31.2357,
		City:      "Cairo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(bcrypt.MinCost)
	seedUser(t, repo, "k@example.com", "Password123")
	svc := NewAuthService(testAuthConfig(), repo)

	user, err := svc.Authenticate(context.Background(), "k@example.com", "Password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "k@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(bcrypt.MinCost)
	svc := NewAuthService(testAuthConfig(), repo)

	_, err := svc.Authenticate(context.Background(), "missing@example.com", "Password123")
	if code := domainCode(t, err); code != "UNKNOWN_EMAIL" {
		t.Errorf("expected code UNKNOWN_EMAIL, got %q", code)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(bcrypt.MinCost)
	seedUser(t, repo, "k@example.com", "Password123")
	svc := NewAuthService(testAuthConfig(), repo)

	_, err := svc.Authenticate(context.Background(), "k@example.com", "Password124")
	if code := domainCode(t, err); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected code INVALID_CREDENTIALS, got %q", code)
	}
}

func TestIssueTokenCarriesIdentityClaims(t *testing.T) {
	repo := repository.NewInMemoryUserRepository(bcrypt.MinCost)
	seedUser(t, repo, "k@example.com", "Password123")
	svc := NewAuthService(testAuthConfig(), repo)

	user, err := svc.Authenticate(context.Background(), "k@example.com", "Password123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Email != user.Email || claims.Name != user.Name || claims.Role != user.Role {
		t.Errorf("claims do not match the user: %+v", claims)
	}

	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != user.ID {
		t.Errorf("expected subject %d, got %d", user.ID, id)
	}
}
