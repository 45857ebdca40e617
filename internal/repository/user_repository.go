package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/domain"
)

// Storage-level failures translated before they cross the service boundary.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// CreateUserParams carries the fields for a new account. Password arrives
// in plaintext and is hashed inside Create, never stored as supplied.
type CreateUserParams struct {
	Name      string
	Email     string
	Password  string
	Latitude  float64
	Longitude float64
	City      string
	Role      domain.Role
}

// UserRepository defines persistence access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

const pgUniqueViolation = "23505"

type userRepository struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

// NewUserRepository returns a Postgres-backed implementation that hashes
// passwords with the given bcrypt cost.
func NewUserRepository(pool *pgxpool.Pool, bcryptCost int) UserRepository {
	return &userRepository{pool: pool, bcryptCost: bcryptCost}
}

func (r *userRepository) Create(ctx context.Context, params CreateUserParams) (*domain.User, error) {
	hash, err := auth.HashPassword(params.Password, r.bcryptCost)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = domain.RoleMember
	}

	const query = `
        INSERT INTO users (name, email, password_hash, latitude, longitude, city, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`

	user := &domain.User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Latitude:     params.Latitude,
		Longitude:    params.Longitude,
		City:         params.City,
		Role:         role,
	}
	if err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Latitude,
		user.Longitude,
		user.City,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, latitude, longitude, city, role, created_at
        FROM users WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, latitude, longitude, city, role, created_at
        FROM users WHERE email=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, latitude, longitude, city, role, created_at
        FROM users ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Latitude,
			&user.Longitude,
			&user.City,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Latitude,
		&user.Longitude,
		&user.City,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
