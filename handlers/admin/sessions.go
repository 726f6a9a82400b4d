package admin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SessionResponse is the admin view of a refresh session. The token value
// itself never leaves the server.
type SessionResponse struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Revoked   bool   `json:"revoked"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// ListUserSessions lists the refresh sessions of a user.
// GET /admin/users/:id/sessions
func ListUserSessions(c *fiber.Ctx, store database.Storage, ledger *auth.LedgerService) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	tokens, err := ledger.ListForUser(c.Context(), uint(userID))
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch sessions")
	}

	sessions := make([]SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionResponse{
			ID:        t.ID,
			UserID:    t.UserID,
			Revoked:   t.Revoked,
			ExpiresAt: t.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return response.Success(c, sessions)
}

// RevokeSession revokes one refresh session by ledger row ID. The revocation
// and its audit row commit in the same transaction.
// DELETE /admin/sessions/:id
func RevokeSession(c *fiber.Ctx, store database.Storage, ledger *auth.LedgerService) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.WithTx(tx).RevokeSession(c.Context(), uint(sessionID)); err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("revoked session %d", sessionID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.InternalServerError(c, "Failed to revoke session")
	}

	return response.SuccessWithMessage(c, "Session revoked", nil)
}

// RevokeAllUserSessions revokes every live refresh session of a user, signing
// them out everywhere.
// DELETE /admin/users/:id/sessions
func RevokeAllUserSessions(c *fiber.Ctx, store database.Storage, ledger *auth.LedgerService) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	var revoked int64
	err = db.Transaction(func(tx *gorm.DB) error {
		n, err := ledger.WithTx(tx).RevokeAllForUser(c.Context(), uint(userID))
		if err != nil {
			return err
		}
		revoked = n
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("revoked all sessions for user %d", userID),
			IP:          c.IP(),
			Context:     fiber.Map{"revoked_count": revoked},
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to revoke sessions")
	}

	return response.SuccessWithMessage(c, "Sessions revoked", fiber.Map{"revoked_count": revoked})
}
