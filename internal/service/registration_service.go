package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nile-labs/registration-service/internal/domain"
	"github.com/nile-labs/registration-service/internal/events"
	"github.com/nile-labs/registration-service/internal/geocode"
	"github.com/nile-labs/registration-service/internal/repository"
	apperrors "github.com/nile-labs/registration-service/pkg/util"
)

// RegisterParams carries the registration input.
type RegisterParams struct {
	Name      string
	Email     string
	Password  string
	Latitude  float64
	Longitude float64
}

// RegistrationService validates and persists new accounts.
type RegistrationService struct {
	users      repository.UserRepository
	geocoder   geocode.Client
	dispatcher events.Dispatcher
}

// NewRegistrationService builds the service. dispatcher may be nil.
func NewRegistrationService(users repository.UserRepository, geocoder geocode.Client, dispatcher events.Dispatcher) *RegistrationService {
	return &RegistrationService{users: users, geocoder: geocoder, dispatcher: dispatcher}
}

// Register creates a new account. Steps run in order and each failure
// short-circuits the rest: duplicate-email check, bounding-box check,
// geocoding lookup, store create. The store's unique constraint remains
// the backstop for a duplicate racing past the pre-check.
func (s *RegistrationService) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, params.Email); err == nil {
		return nil, apperrors.NewDuplicateEmail(params.Email)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	if !domain.InServiceArea(params.Latitude, params.Longitude) {
		return nil, apperrors.NewOutOfServiceArea()
	}

	city, err := s.geocoder.ResolveCity(ctx, params.Latitude, params.Longitude)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, repository.CreateUserParams{
		Name:      params.Name,
		Email:     params.Email,
		Password:  params.Password,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		City:      city,
		Role:      domain.RoleMember,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail(params.Email)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publishRegistered(ctx, user)
	return user, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		UserID:    user.ID,
		Timestamp: time.Now(),
		Payload: events.UserRegisteredPayload{
			Name:  user.Name,
			Email: user.Email,
			City:  user.City,
			Role:  user.Role,
		},
	})
}
