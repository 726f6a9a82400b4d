package auth

import (
	"context"
	"errors"
	"time"

	"github.com/acadfolio/portfolio-api/model"
	"gorm.io/gorm"
)

// Refresh-token exchange failures, in the order they are detected.
var (
	ErrTokenMissing    = errors.New("refresh token missing")
	ErrTokenRevoked    = errors.New("refresh token revoked")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// LedgerService owns the refresh_tokens table: every refresh token ever
// issued has a row here, and exchange/revocation go through the row, never
// through the signed string alone.
type LedgerService struct {
	db  *gorm.DB
	jwt *JWTManager
}

// NewLedgerService creates a ledger service bound to a database handle.
func NewLedgerService(db *gorm.DB, jwt *JWTManager) *LedgerService {
	return &LedgerService{db: db, jwt: jwt}
}

// WithTx returns a copy of the service bound to tx, so a revocation can share
// a transaction with the audit row documenting it.
func (s *LedgerService) WithTx(tx *gorm.DB) *LedgerService {
	return &LedgerService{db: tx, jwt: s.jwt}
}

// IssueAndStore mints a refresh token for the user and persists its ledger
// row through tx, so the row commits or rolls back together with whatever
// login/register write triggered it.
func (s *LedgerService) IssueAndStore(tx *gorm.DB, user *model.User) (string, error) {
	token, err := s.jwt.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		return "", err
	}

	row := model.RefreshToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwt.RefreshExpiry()),
	}
	if err := tx.Create(&row).Error; err != nil {
		return "", err
	}

	return token, nil
}

// Exchange trades a presented refresh token for a new access token. The
// ledger row is checked before the signature so a revoked token reports
// ErrTokenRevoked even after it has also expired. The access token carries
// the user's current role from the store, not the role baked into the
// refresh token, so a demotion takes effect on the next exchange.
func (s *LedgerService) Exchange(ctx context.Context, presented string) (string, *model.User, error) {
	if presented == "" {
		return "", nil, ErrTokenMissing
	}

	var row model.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", presented).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidToken
	}
	if err != nil {
		return "", nil, err
	}
	if row.Revoked {
		return "", nil, ErrTokenRevoked
	}

	claims, err := s.jwt.ValidateToken(presented)
	if err != nil {
		return "", nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", nil, ErrInvalidToken
	}

	var user model.User
	err = s.db.WithContext(ctx).First(&user, row.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrUserNotFound
	}
	if err != nil {
		return "", nil, err
	}

	access, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return access, &user, nil
}

// Revoke marks the matching ledger row revoked. It is idempotent: revoking a
// token that is already revoked, or that was never issued, is not an error.
func (s *LedgerService) Revoke(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token = ?", presented).
		Update("revoked", true).
		Error
}

// RevokeSession revokes a single ledger row by id (admin session kill).
func (s *LedgerService) RevokeSession(ctx context.Context, sessionID uint) error {
	res := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ?", sessionID).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeAllForUser revokes every live session of a user and returns how many
// rows were touched.
func (s *LedgerService) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// ListForUser returns the user's ledger rows, newest first.
func (s *LedgerService) ListForUser(ctx context.Context, userID uint) ([]model.RefreshToken, error) {
	var rows []model.RefreshToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// PurgeStale deletes rows that can no longer be exchanged: expired rows, and
// revoked rows older than the retention window. Audit rows are untouched.
func (s *LedgerService) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Or("revoked = ? AND created_at < ?", true, now.Add(-retention)).
		Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
