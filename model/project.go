package model

import (
	"time"

	"gorm.io/gorm"
)

// Project is one portfolio project entry
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Title       string         `gorm:"type:varchar(300);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	URL         string         `gorm:"type:varchar(500)" json:"url"`
	StartedAt   *time.Time     `json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}
