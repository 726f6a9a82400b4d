package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/acadfolio/portfolio-api/model"
)

// Rows for expired or long-revoked refresh tokens carry no value once the
// audit trail has recorded the sessions they backed.
const refreshTokenRetention = 30 * 24 * time.Hour

// Messages already read stay visible this long before they are archived.
const readMessageRetention = 90 * 24 * time.Hour

// PurgeRefreshTokens deletes ledger rows that can no longer be exchanged:
// expired rows, and revoked rows past the retention window. Live rows always
// survive so admin session listings stay meaningful.
func (m *CronManager) PurgeRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "purge_refresh_tokens"

	purged, err := m.ledger.PurgeStale(ctx, refreshTokenRetention)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge refresh tokens: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("purged %d stale refresh token rows", purged))
}

// ArchiveReadMessages flips contact messages that were read long ago to
// archived so the back office inbox stays small.
func (m *CronManager) ArchiveReadMessages() {
	jobName := "archive_read_messages"

	cutoff := time.Now().Add(-readMessageRetention)
	res := m.db.Model(&model.ContactMessage{}).
		Where("status = ? AND created_at < ?", model.MessageRead, cutoff).
		Update("status", model.MessageArchived)
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to archive messages: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("archived %d messages", res.RowsAffected))
}
