package project

import (
	"fmt"
	"strconv"
	"time"

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

// ProjectRequest represents the payload for creating or replacing a project
// entry. Dates are RFC3339.
type ProjectRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=300"`
	Description string     `json:"description" validate:"max=5000"`
	URL         string     `json:"url" validate:"omitempty,url,max=500"`
	StartedAt   *time.Time `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

func gormDB(c *fiber.Ctx, store database.Storage) (*gorm.DB, error) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return nil, response.InternalServerError(c, "Database connection error")
	}
	return db, nil
}

// canManage reports whether the actor may modify a project owned by ownerID.
// Owners manage their own entries; admins manage everyone's.
func canManage(actor *model.User, ownerID uint) bool {
	if actor.Role == model.RoleAdmin || actor.Role == model.RoleSuperAdmin {
		return true
	}
	return actor.ID == ownerID
}

// denyNotOwner audits the denied attempt and returns the 403. Same contract
// as the role gate: an unrecorded denial becomes a 500.
func denyNotOwner(c *fiber.Ctx, audits *services.AuditService, actor *model.User) error {
	entry := services.AuditEntry{
		ActorID:     &actor.ID,
		ActorRole:   actor.Role,
		Description: "unauthorized access attempt to " + c.Method() + " " + c.Path(),
		IP:          c.IP(),
	}
	if err := audits.Record(c.Context(), entry); err != nil {
		return response.InternalServerError(c, "Failed to record audit entry")
	}
	return response.Forbidden(c, "You don't have permission to modify this project")
}

// List returns all projects, most recent first. Public.
// GET /projects
func List(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var projects []model.Project
	if err := db.Order("started_at DESC NULLS LAST, id DESC").Find(&projects).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch projects")
	}

	return response.Success(c, projects)
}

// Get returns one project by ID. Public.
// GET /projects/:id
func Get(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid project ID")
	}

	var project model.Project
	if err := db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to fetch project")
	}

	return response.Success(c, project)
}

// Create adds a project. The insert and its audit row commit together.
// POST /projects
func Create(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.StartedAt != nil && req.EndedAt != nil && req.EndedAt.Before(*req.StartedAt) {
		return response.BadRequest(c, "Project cannot end before it starts")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	project := model.Project{
		UserID:      actor.ID,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("created project %d", project.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create project")
	}

	return response.Created(c, project)
}

// Update replaces a project's fields.
// PUT /projects/:id
func Update(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid project ID")
	}

	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.StartedAt != nil && req.EndedAt != nil && req.EndedAt.Before(*req.StartedAt) {
		return response.BadRequest(c, "Project cannot end before it starts")
	}

	var project model.Project
	if err := db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to fetch project")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	if !canManage(actor, project.UserID) {
		return denyNotOwner(c, audits, actor)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Updates(map[string]interface{}{
			"title":       req.Title,
			"description": req.Description,
			"url":         req.URL,
			"started_at":  req.StartedAt,
			"ended_at":    req.EndedAt,
		}).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("updated project %d", project.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update project")
	}

	return response.SuccessWithMessage(c, "Project updated", project)
}

// Delete removes a project.
// DELETE /projects/:id
func Delete(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid project ID")
	}

	var project model.Project
	if err := db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Project not found")
		}
		return response.InternalServerError(c, "Failed to fetch project")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	if !canManage(actor, project.UserID) {
		return denyNotOwner(c, audits, actor)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&project).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("deleted project %d", project.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete project")
	}

	return response.SuccessWithMessage(c, "Project deleted", nil)
}
