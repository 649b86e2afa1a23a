package auth

import (
	"testing"
	"time"

	"github.com/dsmolkin/refind/internal/models"
)

var secret = []byte("test-secret")

func TestSignAndParse(t *testing.T) {
	token, err := Sign(secret, 42, models.RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := Parse(secret, token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %s", claims.Role)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Sign(secret, 1, models.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Parse([]byte("other-secret"), token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	token, err := Sign(secret, 1, models.RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Parse(secret, token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := Parse(secret, "not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
