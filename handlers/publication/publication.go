package publication

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

// PublicationRequest represents the payload for creating or replacing a
// publication entry.
type PublicationRequest struct {
	Year      int    `json:"year" validate:"required,min=1900,max=2100"`
	Title     string `json:"title" validate:"required,min=3,max=300"`
	Coauthors string `json:"coauthors" validate:"max=500"`
	Journal   string `json:"journal" validate:"max=300"`
	DOI       string `json:"doi" validate:"max=100"`
}

func gormDB(c *fiber.Ctx, store database.Storage) (*gorm.DB, error) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return nil, response.InternalServerError(c, "Database connection error")
	}
	return db, nil
}

// canManage reports whether the actor may modify a publication owned by
// ownerID. Owners manage their own entries; admins manage everyone's.
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
	return response.Forbidden(c, "You don't have permission to modify this publication")
}

// List returns all publications, newest year first. Public.
// GET /publications
func List(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	query := db.Model(&model.Publication{})
	if year := c.QueryInt("year"); year > 0 {
		query = query.Where("year = ?", year)
	}

	var publications []model.Publication
	if err := query.Order("year DESC, id DESC").Find(&publications).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch publications")
	}

	return response.Success(c, publications)
}

// Get returns one publication by ID. Public.
// GET /publications/:id
func Get(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid publication ID")
	}

	var publication model.Publication
	if err := db.First(&publication, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Publication not found")
		}
		return response.InternalServerError(c, "Failed to fetch publication")
	}

	return response.Success(c, publication)
}

// Create adds a publication. The insert and its audit row commit together.
// POST /publications
func Create(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req PublicationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	publication := model.Publication{
		UserID:    actor.ID,
		Year:      req.Year,
		Title:     req.Title,
		Coauthors: req.Coauthors,
		Journal:   req.Journal,
		DOI:       req.DOI,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&publication).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("created publication %d", publication.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create publication")
	}

	return response.Created(c, publication)
}

// Update replaces a publication's fields.
// PUT /publications/:id
func Update(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid publication ID")
	}

	var req PublicationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var publication model.Publication
	if err := db.First(&publication, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Publication not found")
		}
		return response.InternalServerError(c, "Failed to fetch publication")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	if !canManage(actor, publication.UserID) {
		return denyNotOwner(c, audits, actor)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&publication).Updates(map[string]interface{}{
			"year":      req.Year,
			"title":     req.Title,
			"coauthors": req.Coauthors,
			"journal":   req.Journal,
			"doi":       req.DOI,
		}).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("updated publication %d", publication.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update publication")
	}

	return response.SuccessWithMessage(c, "Publication updated", publication)
}

// Delete removes a publication.
// DELETE /publications/:id
func Delete(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid publication ID")
	}

	var publication model.Publication
	if err := db.First(&publication, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Publication not found")
		}
		return response.InternalServerError(c, "Failed to fetch publication")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)

	if !canManage(actor, publication.UserID) {
		return denyNotOwner(c, audits, actor)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&publication).Error; err != nil {
			return err
		}
		return audits.RecordTx(tx, services.AuditEntry{
			ActorID:     &actor.ID,
			ActorRole:   actor.Role,
			Description: fmt.Sprintf("deleted publication %d", publication.ID),
			IP:          c.IP(),
		})
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete publication")
	}

	return response.SuccessWithMessage(c, "Publication deleted", nil)
}
