package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold. There is no hierarchy between them; every protected
// route enumerates the exact set it accepts.
const (
	RoleUser       = "user"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Account statuses. Only active accounts can authenticate.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleResearcher, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known account status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// User represents a registered account
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Role           string         `gorm:"type:varchar(20);not null;default:'researcher';index" json:"role"`
	Status         string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// Relationships
	Profile       *Profile       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Publications  []Publication  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Projects      []Project      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	// Audit rows keep a nullable FK on purpose: deleting a user must not take
	// its audit history with it.
	Audits []Audit `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
