package model

import (
	"time"
)

// Contact message statuses
const (
	MessagePending  = "pending"
	MessageRead     = "read"
	MessageArchived = "archived"
)

// ValidMessageStatus checks if the given status is a known message status
func ValidMessageStatus(status string) bool {
	switch status {
	case MessagePending, MessageRead, MessageArchived:
		return true
	}
	return false
}

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderName  string    `gorm:"type:varchar(100);not null" json:"sender_name"`
	SenderEmail string    `gorm:"type:varchar(100);not null" json:"sender_email"`
	Message     string    `gorm:"type:varchar(1000);not null" json:"message"`
	Status      string    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for ContactMessage
func (ContactMessage) TableName() string {
	return "contact_messages"
}
