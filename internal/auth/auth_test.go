package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"agileflow/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret!" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRandomPassword(t *testing.T) {
	a, err := RandomPassword(12)
	if err != nil {
		t.Fatalf("random password: %v", err)
	}
	if len(a) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(a))
	}
	for _, r := range a {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Fatalf("unexpected character %q", r)
		}
	}
	b, _ := RandomPassword(12)
	if a == b {
		t.Fatalf("expected two different passwords")
	}
	if _, err := RandomPassword(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.Issue(models.User{ID: 7, Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 7 {
		t.Fatalf("expected user 7, got %d (%v)", id, err)
	}
	if claims.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", claims.Role)
	}
}

func TestTokensRejectTamperedAndExpired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	raw, err := tokens.Issue(models.User{ID: 1, Role: models.RoleMember})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokens("other-secret", time.Hour)
	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := tokens.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
