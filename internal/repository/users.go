// Package repository provides persistence implementations for the registry
// services using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dsmolkin/refind/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registration hits the unique email constraint.
var ErrDuplicateEmail = errors.New("email already registered")

// PostgresUserRepository implements user persistence against a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts a new user and returns its assigned ID.
// A unique-constraint violation on email is reported as ErrDuplicateEmail.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, name, email, passwordHash string, role models.Role) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, passwordHash, role,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("CreateUser: %w", err)
	}
	return id, nil
}

// GetByEmail fetches a user and its password hash by email.
// Returns ErrNotFound if no user with that email exists.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.User, string, error) {
	var (
		user models.User
		hash string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, role, password_hash FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &hash)
	if err == sql.ErrNoRows {
		return models.User{}, "", ErrNotFound
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("GetByEmail: %w", err)
	}
	return user, hash, nil
}

// GetByID fetches a user by its primary key.
// Returns ErrNotFound if no such user exists.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, email, role FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("GetByID: %w", err)
	}
	return user, nil
}
