package admin

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Role   string `query:"role"`
	Status string `query:"status"`
}

// UpdateUserRequest is the allow-listed set of fields an administrator may
// change on a user. Nothing outside this struct can be touched through the
// endpoint, which is what keeps extra request fields from escalating anyone.
type UpdateUserRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func gormDB(c *fiber.Ctx, store database.Storage) (*gorm.DB, error) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return nil, response.InternalServerError(c, "Database connection error")
	}
	return db, nil
}

// ListUsers retrieves users with role/status filters and pagination. Listing
// accounts is a sensitive read, so it leaves an audit row of its own.
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := db.Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Order("created_at DESC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)
	if err := audits.Record(c.Context(), services.AuditEntry{
		ActorID:     &actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("listed users (role=%s, status=%s, page=%d)", req.Role, req.Status, req.Page),
		IP:          c.IP(),
	}); err != nil {
		return response.InternalServerError(c, "Failed to record audit entry")
	}

	return response.Paginated(c, users, response.CalculatePagination(req.Page, req.Limit, total))
}

// GetUser retrieves a specific user by ID
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.Preload("Profile").First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, user)
}

// UpdateUser changes a user's role and/or status. The change and its audit
// row commit in one transaction.
// PUT /admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Role == nil && req.Status == nil {
		return response.BadRequest(c, "Nothing to update")
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		return response.BadRequest(c, "Invalid role")
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return response.BadRequest(c, "Invalid status")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	oldRole, oldStatus := user.Role, user.Status
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{"role": user.Role, "status": user.Status}).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("updated user %d", user.ID),
			IP:          c.IP(),
			Context: fiber.Map{
				"old_role":   oldRole,
				"new_role":   user.Role,
				"old_status": oldStatus,
				"new_status": user.Status,
			},
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.SuccessWithMessage(c, "User updated", user)
}

// ExportUsersCSV streams the user roster as CSV. The export is audited
// before any data leaves.
// GET /admin/users/export
func ExportUsersCSV(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	query := db.Model(&model.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var users []model.User
	if err := query.Order("created_at DESC").Limit(10000).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)
	if err := audits.Record(c.Context(), services.AuditEntry{
		ActorID:     &actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("exported %d users to CSV", len(users)),
		IP:          c.IP(),
	}); err != nil {
		return response.InternalServerError(c, "Failed to record audit entry")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=users-%s.csv", time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c)
	defer w.Flush()

	if err := w.Write([]string{"id", "email", "role", "status", "created_at"}); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Email,
			u.Role,
			u.Status,
			u.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUser removes a user account. Accounts with audit history are soft
// deleted (status flipped to inactive, row retained) so the audit trail keeps
// its provenance; only accounts with no audit rows are hard deleted.
// DELETE /admin/users/:id
func DeleteUser(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor, _ := middleware.GetUser(c)
	if actor.ID == uint(userID) {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var auditCount int64
	if err := db.Model(&model.Audit{}).Where("user_id = ?", user.ID).Count(&auditCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check audit history")
	}

	audits := services.NewAuditService(db)
	mode := "hard"
	if auditCount > 0 {
		mode = "soft"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if auditCount > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", user.ID).
				Update("status", model.StatusInactive).Error; err != nil {
				return err
			}
			if err := tx.Delete(&model.User{}, user.ID).Error; err != nil { // soft delete
				return err
			}
		} else {
			if err := tx.Unscoped().Delete(&model.User{}, user.ID).Error; err != nil {
				return err
			}
		}

		// Kill any live sessions either way.
		if err := tx.Model(&model.RefreshToken{}).
			Where("user_id = ?", user.ID).
			Update("revoked", true).Error; err != nil {
			return err
		}

		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("deleted user %d (%s delete)", user.ID, mode),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted", fiber.Map{"mode": mode})
}
