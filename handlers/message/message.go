package message

import (
	"fmt"
	"strconv"

	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/acadfolio/portfolio-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validation.NewValidator()

// CreateMessageRequest is the public contact form payload.
type CreateMessageRequest struct {
	SenderName  string `json:"sender_name" validate:"required,min=2,max=100"`
	SenderEmail string `json:"sender_email" validate:"required,email,max=100"`
	Message     string `json:"message" validate:"required,min=10,max=1000"`
}

// UpdateMessageRequest moves a message through its workflow.
type UpdateMessageRequest struct {
	Status string `json:"status" validate:"required,oneof=pending read archived"`
}

func gormDB(c *fiber.Ctx, store database.Storage) (*gorm.DB, error) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return nil, response.InternalServerError(c, "Database connection error")
	}
	return db, nil
}

// Create accepts a message from the public contact form. No authentication,
// no audit actor; abuse is contained by the rate limiter in front of it.
// POST /messages
func Create(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	msg := model.ContactMessage{
		SenderName:  req.SenderName,
		SenderEmail: req.SenderEmail,
		Message:     req.Message,
		Status:      model.MessagePending,
	}
	if err := db.Create(&msg).Error; err != nil {
		return response.InternalServerError(c, "Failed to save message")
	}

	return response.Created(c, fiber.Map{"id": msg.ID})
}

// List returns contact messages for the back office, optionally filtered by
// status.
// GET /admin/messages
func List(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.Model(&model.ContactMessage{})
	if status := c.Query("status"); status != "" {
		if !model.ValidMessageStatus(status) {
			return response.BadRequest(c, "Invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count messages")
	}

	var messages []model.ContactMessage
	if err := query.Offset((page - 1) * limit).Limit(limit).Order("created_at DESC").Find(&messages).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch messages")
	}

	return response.Paginated(c, messages, response.CalculatePagination(page, limit, total))
}

// UpdateStatus moves a message to pending, read or archived.
// PUT /admin/messages/:id
func UpdateStatus(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid message ID")
	}

	var req UpdateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var msg model.ContactMessage
	if err := db.First(&msg, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to fetch message")
	}

	if err := db.Model(&msg).Update("status", req.Status).Error; err != nil {
		return response.InternalServerError(c, "Failed to update message")
	}

	return response.SuccessWithMessage(c, "Message updated", msg)
}

// Delete removes a message. Deletion is audited because it destroys data the
// list endpoints can no longer show.
// DELETE /admin/messages/:id
func Delete(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid message ID")
	}

	var msg model.ContactMessage
	if err := db.First(&msg, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Message not found")
		}
		return response.InternalServerError(c, "Failed to fetch message")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&msg).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("deleted contact message %d", msg.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete message")
	}

	return response.SuccessWithMessage(c, "Message deleted", nil)
}
