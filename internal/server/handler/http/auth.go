// Package http provides HTTP handlers for the lost-and-found registry API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dsmolkin/refind/internal/middleware"
	"github.com/dsmolkin/refind/internal/models"
	"github.com/dsmolkin/refind/internal/service"
)

// AuthService defines the interface for account operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a new account and returns the stored profile.
	Register(ctx context.Context, name, email, password string) (models.User, error)
	// Login verifies credentials and issues a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	// Resolve verifies a bearer token and returns the profile it identifies.
	Resolve(ctx context.Context, token string) (models.User, error)
}

// AuthHandler handles HTTP requests for registration, login and identity.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
}

// RegisterRequest represents the JSON payload for account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
// It expects a JSON body with name, email and password, all non-empty.
// On success it returns the created profile.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

// Login handles POST /api/auth/login.
// On success it returns the access token in the shape the client expects:
// {"access_token": "...", "token_type": "bearer"}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Email == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "incorrect email or password", http.StatusBadRequest)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me handles GET /api/auth/me.
// The bearer middleware has already verified the token; the profile is
// fetched fresh so a deleted account stops resolving immediately.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	token := bearerToken(r)
	user, err := h.AuthService.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
