package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Claims represents JWT claims. The role claim mirrors the user's role at
// issue time; authorization always re-reads the stored row, so a stale role
// here is informational only.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// JWTManager signs and verifies tokens with a single shared HS256 secret
// fixed for the process lifetime.
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
		now:    time.Now,
	}
}

// GenerateAccessToken mints a short-lived access token for the user.
func (j *JWTManager) GenerateAccessToken(userID uint, role string) (string, error) {
	return j.generate(userID, role, TokenTypeAccess, j.config.Expiry)
}

// GenerateRefreshToken mints a long-lived refresh token for the user. The
// caller is responsible for persisting it to the ledger.
func (j *JWTManager) GenerateRefreshToken(userID uint, role string) (string, error) {
	return j.generate(userID, role, TokenTypeRefresh, j.config.RefreshExpiry)
}

func (j *JWTManager) generate(userID uint, role, tokenType string, ttl time.Duration) (string, error) {
	now := j.now()

	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.Secret))
}

// ValidateToken checks signature and expiry and returns the claims. Expiry is
// exclusive: a token inspected exactly at its expiry instant is rejected.
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// AccessExpiry exposes the configured access token lifetime.
func (j *JWTManager) AccessExpiry() time.Duration {
	return j.config.Expiry
}

// RefreshExpiry exposes the configured refresh token lifetime so the ledger
// can stamp rows with the same horizon the token itself carries.
func (j *JWTManager) RefreshExpiry() time.Duration {
	return j.config.RefreshExpiry
}
