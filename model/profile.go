package model

import (
	"time"
)

// Profile holds the public-facing description of a user
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName   string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string    `gorm:"type:varchar(100)" json:"last_name"`
	Grade       string    `gorm:"type:varchar(100)" json:"grade"`
	Speciality  string    `gorm:"type:varchar(200)" json:"speciality"`
	Diploma     string    `gorm:"type:varchar(200)" json:"diploma"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}
