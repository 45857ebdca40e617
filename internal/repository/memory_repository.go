package repository

import (
	"context"
	"sync"
	"time"

	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/domain"
)

// InMemoryUserRepository is a map-backed store used by tests and local
// runs without Postgres. It mirrors the Postgres implementation's
// contract, including hashing inside Create and email uniqueness.
type InMemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[int64]*domain.User
	byEmail    map[string]*domain.User
	nextID     int64
	bcryptCost int
}

// NewInMemoryUserRepository builds an empty in-memory store.
func NewInMemoryUserRepository(bcryptCost int) *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:       make(map[int64]*domain.User),
		byEmail:    make(map[string]*domain.User),
		nextID:     1,
		bcryptCost: bcryptCost,
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, params CreateUserParams) (*domain.User, error) {
	hash, err := auth.HashPassword(params.Password, r.bcryptCost)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = domain.RoleMember
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[params.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	user := &domain.User{
		ID:           r.nextID,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		City:         params.City,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	r.nextID++
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user

	copied := *user
	return &copied, nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *InMemoryUserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.byID))
	for id := int64(1); id < r.nextID; id++ {
		if user, ok := r.byID[id]; ok {
			copied := *user
			users = append(users, &copied)
		}
	}
	return users, nil
}
