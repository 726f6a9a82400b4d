package model

import (
	"time"
)

// RefreshToken is one row of the refresh-token ledger. The signed token string
// is stored verbatim; a row is never updated except to flip Revoked to true,
// and a revoked row never becomes valid again. A user may hold several live
// rows at once (one per device/session).
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null;type:text" json:"-"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for RefreshToken
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
