package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-at-least-decent",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "portfolio-api-test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testJWTManager()

	token, err := m.GenerateAccessToken(42, "researcher")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "researcher" {
		t.Errorf("Role = %q, want researcher", claims.Role)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
	if claims.Issuer != "portfolio-api-test" {
		t.Errorf("Issuer = %q, want portfolio-api-test", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a JTI on every token")
	}
}

func TestRefreshTokenCarriesRefreshType(t *testing.T) {
	m := testJWTManager()

	token, err := m.GenerateRefreshToken(7, "admin")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeRefresh)
	}
}

func TestUniqueTokenIDs(t *testing.T) {
	m := testJWTManager()

	a, err := m.GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}

	ca, _ := m.ValidateToken(a)
	cb, _ := m.ValidateToken(b)
	if ca == nil || cb == nil {
		t.Fatal("expected both tokens to validate")
	}
	if ca.ID == cb.ID {
		t.Error("two tokens for the same user must carry distinct JTIs")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := testJWTManager()
	other := NewJWTManager(JWTConfig{
		Secret: "a-completely-different-secret",
		Expiry: 15 * time.Minute,
	})

	token, err := m.GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := NewJWTManager(JWTConfig{
		Secret: "test-secret",
		Expiry: -1 * time.Minute, // already past its expiry instant
	})

	token, err := m.GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenAtExpiryInstant(t *testing.T) {
	m := testJWTManager()

	// Pin the clock so the token's exp lands on a known second.
	issued := time.Now().Truncate(time.Second)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateAccessToken(1, "user")
	if err != nil {
		t.Fatal(err)
	}

	expiry := issued.Add(m.config.Expiry)

	m.now = func() time.Time { return expiry.Add(-time.Second) }
	if _, err := m.ValidateToken(token); err != nil {
		t.Fatalf("token must verify before its expiry instant, got %v", err)
	}

	// Expiry is exclusive: the instant itself is already too late.
	m.now = func() time.Time { return expiry }
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken at the expiry instant, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	m := testJWTManager()

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.ValidateToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}
