package message

import (
	"time"

	"threadbox/internal/app/user"

	"gorm.io/gorm"
)

type Message struct {
	ID        uint64         `json:"id" gorm:"primaryKey"`
	ThreadID  uint64         `json:"thread_id" gorm:"not null;index:idx_messages_thread_created,priority:1"`
	UserID    uint64         `json:"user_id" gorm:"not null;index"`
	Body      string         `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_messages_thread_created,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      *user.User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
