package service

import (
	"context"
	"errors"

	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/config"
	"github.com/nile-labs/registration-service/internal/domain"
	"github.com/nile-labs/registration-service/internal/repository"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
)

// AuthService validates credentials and issues bearer tokens.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:    users,
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// Authenticate validates email and password against the stored hash.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUnknownEmail()
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}
	return user, nil
}

// IssueToken signs a bearer token carrying the user's identity claims.
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	token, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return token, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
