package services

import (
	"context"
	"encoding/json"

	"github.com/acadfolio/portfolio-api/model"
	"gorm.io/gorm"
)

// AuditEntry describes one audit row before it is written. ActorID is nil for
// anonymous events. Context is optional structured detail (filters used,
// affected ids) and ends up in the jsonb column.
type AuditEntry struct {
	ActorID     *uint
	ActorRole   string
	Description string
	IP          string
	Context     interface{}
}

// AuditService appends rows to the audit trail. There is deliberately no
// update or delete method on it.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends one audit row outside any business transaction, for
// sensitive reads that have no write to piggyback on. A failed insert is
// retried once; a second failure is returned to the caller, who must surface
// it rather than swallow it.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	row, err := buildRow(entry)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// RecordTx appends one audit row inside the caller's transaction, so the
// audit entry commits or rolls back together with the action it documents.
func (s *AuditService) RecordTx(tx *gorm.DB, entry AuditEntry) error {
	row, err := buildRow(entry)
	if err != nil {
		return err
	}
	return tx.Create(row).Error
}

func buildRow(entry AuditEntry) (*model.Audit, error) {
	row := &model.Audit{
		UserID:            entry.ActorID,
		UserRole:          entry.ActorRole,
		ActionDescription: entry.Description,
		IPAddress:         entry.IP,
	}
	if entry.Context != nil {
		raw, err := json.Marshal(entry.Context)
		if err != nil {
			return nil, err
		}
		row.Context = raw
	}
	return row, nil
}
