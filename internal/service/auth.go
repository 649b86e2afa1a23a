// Package service provides business logic for accounts and listings,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dsmolkin/refind/internal/auth"
	"github.com/dsmolkin/refind/internal/models"
	"github.com/dsmolkin/refind/internal/repository"
)

// ErrEmailTaken is returned when registering with an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidCredentials is returned when login email or password do not match.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// UserRepository defines the persistence operations required by the AuthService.
type UserRepository interface {
	// CreateUser inserts a new user and returns its assigned ID.
	CreateUser(ctx context.Context, name, email, passwordHash string, role models.Role) (int64, error)
	// GetByEmail fetches a user and its password hash by email.
	GetByEmail(ctx context.Context, email string) (models.User, string, error)
	// GetByID fetches a user by its primary key.
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// AuthService implements registration, login and token resolution.
type AuthService struct {
	repo UserRepository
	// secret signs and verifies access tokens.
	secret []byte
	// tokenTTL is the issued-token lifetime.
	tokenTTL time.Duration
}

// NewAuthService constructs an AuthService using the provided repository,
// signing secret and token lifetime.
func NewAuthService(repo UserRepository, secret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Register creates a new account with the default user role.
// A duplicate email is reported as ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	const op = "service.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateUser(ctx, name, email, string(hash), models.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.User{ID: id, Name: name, Email: email, Role: models.RoleUser}, nil
}

// Login checks the password for the account and issues a signed access token.
// Unknown email and wrong password both come back as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.Login"

	user, hash, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token, err := auth.Sign(s.secret, user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Resolve verifies a bearer token and returns the profile it identifies.
// Any token or lookup failure collapses to auth.ErrInvalidToken so the
// handler can answer 401 without leaking which check failed.
func (s *AuthService) Resolve(ctx context.Context, token string) (models.User, error) {
	claims, err := auth.Parse(s.secret, token)
	if err != nil {
		return models.User{}, auth.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, auth.ErrInvalidToken
		}
		return models.User{}, fmt.Errorf("service.Resolve: %w", err)
	}
	return user, nil
}
