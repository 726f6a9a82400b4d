package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit is an append-only record of a privileged action or a denied access
// attempt. UserID is nullable so anonymous events (logout with a cleared
// session, failed logins) can still be recorded; UserRole is denormalized so
// later role changes never rewrite history. Rows are written once and no code
// path updates or deletes them.
type Audit struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            *uint          `gorm:"index" json:"user_id"`
	UserRole          string         `gorm:"type:varchar(20);not null;index" json:"user_role"`
	ActionDescription string         `gorm:"type:text;not null" json:"action_description"`
	IPAddress         string         `gorm:"type:varchar(45)" json:"ip_address"`
	Context           datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Audit
func (Audit) TableName() string {
	return "audits"
}
