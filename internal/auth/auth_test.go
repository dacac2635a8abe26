package auth

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"projecthub/internal/models"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		t.Fatalf("hash is not base64: %v", err)
	}
	if len(raw) != saltSize+keySize {
		t.Fatalf("unexpected hash length %d", len(raw))
	}

	ok, err := VerifyPassword(hash, "Password123!")
	if err != nil || !ok {
		t.Fatalf("correct password rejected: %v", err)
	}
	ok, err = VerifyPassword(hash, "password123!")
	if err != nil || ok {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	if _, err := VerifyPassword("not base64!!", "x"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := VerifyPassword(short, "x"); err == nil {
		t.Fatalf("expected error for truncated hash")
	}
}

func TestTokensIssueAndParse(t *testing.T) {
	tokens, err := NewTokens("secret", 0)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	user := &models.User{ID: 7, Username: "dir", Email: "director@example.com", Role: models.RoleDirector, FirstName: "Dana", LastName: "Reed"}
	raw, expires, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expiry = %v, want 24h after issue", expires)
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 7 {
		t.Fatalf("user id = %d, %v", id, err)
	}
	if claims.Role != models.RoleDirector || claims.Email != user.Email || claims.Name != "Dana Reed" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	now = now.Add(25 * time.Hour)
	if _, err := tokens.Parse(raw); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestTokensRejectForeignSignature(t *testing.T) {
	a, _ := NewTokens("secret-a", time.Hour)
	b, _ := NewTokens("secret-b", time.Hour)
	raw, _, err := a.Issue(&models.User{ID: 1, Role: models.RoleDeveloper})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Parse(raw); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("token signed with another secret accepted: %v", err)
	}
}
