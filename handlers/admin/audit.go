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

// ListAuditsRequest represents the query parameters for browsing the audit
// trail.
type ListAuditsRequest struct {
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
	UserID   uint   `query:"user_id"`
	UserRole string `query:"user_role"`
	After    string `query:"after"`  // RFC3339 or 2006-01-02
	Before   string `query:"before"` // RFC3339 or 2006-01-02
}

func parseAuditTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func auditQuery(db *gorm.DB, req ListAuditsRequest) (*gorm.DB, error) {
	query := db.Model(&model.Audit{})
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.UserRole != "" {
		query = query.Where("user_role = ?", req.UserRole)
	}
	if req.After != "" {
		t, err := parseAuditTime(req.After)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at >= ?", t)
	}
	if req.Before != "" {
		t, err := parseAuditTime(req.Before)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at < ?", t)
	}
	return query, nil
}

// ListAudits browses the audit trail with actor, role and time filters, most
// recent first.
// GET /admin/audits
func ListAudits(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req ListAuditsRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 200 {
		req.Limit = 50
	}

	query, err := auditQuery(db, req)
	if err != nil {
		return response.BadRequest(c, "Invalid time filter")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit entries")
	}

	var entries []model.Audit
	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Order("created_at DESC").Find(&entries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit entries")
	}

	return response.Paginated(c, entries, response.CalculatePagination(req.Page, req.Limit, total))
}

// ExportAuditsCSV streams the filtered audit trail as CSV. The export is
// itself audited before any data leaves.
// GET /admin/audits/export
func ExportAuditsCSV(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var req ListAuditsRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	query, err := auditQuery(db, req)
	if err != nil {
		return response.BadRequest(c, "Invalid time filter")
	}

	var entries []model.Audit
	if err := query.Order("created_at DESC").Limit(10000).Find(&entries).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit entries")
	}

	actor, _ := middleware.GetUser(c)
	audits := services.NewAuditService(db)
	if err := audits.Record(c.Context(), services.AuditEntry{
		ActorID:     &actor.ID,
		ActorRole:   actor.Role,
		Description: fmt.Sprintf("exported %d audit entries to CSV", len(entries)),
		IP:          c.IP(),
	}); err != nil {
		return response.InternalServerError(c, "Failed to record audit entry")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=audits-%s.csv", time.Now().Format("2006-01-02")))

	w := csv.NewWriter(c)
	defer w.Flush()

	if err := w.Write([]string{"id", "user_id", "user_role", "action", "ip_address", "created_at"}); err != nil {
		return err
	}
	for _, e := range entries {
		actorID := ""
		if e.UserID != nil {
			actorID = strconv.FormatUint(uint64(*e.UserID), 10)
		}
		row := []string{
			strconv.FormatUint(uint64(e.ID), 10),
			actorID,
			e.UserRole,
			e.ActionDescription,
			e.IPAddress,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
