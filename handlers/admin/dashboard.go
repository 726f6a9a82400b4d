package admin

import (
	"time"

	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// DashboardResponse aggregates the counters shown on the admin landing page.
type DashboardResponse struct {
	TotalUsers        int64         `json:"total_users"`
	ActiveUsers       int64         `json:"active_users"`
	TotalPublications int64         `json:"total_publications"`
	TotalProjects     int64         `json:"total_projects"`
	PendingMessages   int64         `json:"pending_messages"`
	ActiveSessions    int64         `json:"active_sessions"`
	RecentAudits      []model.Audit `json:"recent_audits"`
}

// Dashboard returns entity counts and the most recent audit activity.
// GET /admin/dashboard
func Dashboard(c *fiber.Ctx, store database.Storage) error {
	db, err := gormDB(c, store)
	if err != nil {
		return err
	}

	var resp DashboardResponse

	counts := []func() error{
		func() error {
			return db.Model(&model.User{}).Count(&resp.TotalUsers).Error
		},
		func() error {
			return db.Model(&model.User{}).Where("status = ?", model.StatusActive).Count(&resp.ActiveUsers).Error
		},
		func() error {
			return db.Model(&model.Publication{}).Count(&resp.TotalPublications).Error
		},
		func() error {
			return db.Model(&model.Project{}).Count(&resp.TotalProjects).Error
		},
		func() error {
			return db.Model(&model.ContactMessage{}).Where("status = ?", model.MessagePending).Count(&resp.PendingMessages).Error
		},
		func() error {
			return db.Model(&model.RefreshToken{}).
				Where("revoked = ? AND expires_at > ?", false, time.Now()).
				Count(&resp.ActiveSessions).Error
		},
	}
	for _, count := range counts {
		if err := count(); err != nil {
			return response.InternalServerError(c, "Failed to compute dashboard counters")
		}
	}

	if err := db.Order("created_at DESC").Limit(10).Find(&resp.RecentAudits).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch recent audit entries")
	}

	return response.Success(c, resp)
}
