package model

import (
	"time"

	"gorm.io/gorm"
)

// Publication is one research publication shown on the portfolio
type Publication struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Year      int            `gorm:"not null;index" json:"year"`
	Title     string         `gorm:"type:varchar(500);not null" json:"title"`
	Coauthors string         `gorm:"type:text" json:"coauthors"`
	Journal   string         `gorm:"type:varchar(300)" json:"journal"`
	DOI       string         `gorm:"type:varchar(100)" json:"doi"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Publication
func (Publication) TableName() string {
	return "publications"
}
