package participant

import (
	"time"

	"threadbox/internal/app/user"

	"gorm.io/gorm"
)

// Participant joins a user to a thread and carries that user's read marker.
// (thread_id, user_id) is unique.
type Participant struct {
	ID         uint64         `json:"-" gorm:"primaryKey"`
	ThreadID   uint64         `json:"thread_id" gorm:"not null;uniqueIndex:idx_thread_participants_thread_user,priority:1"`
	UserID     uint64         `json:"user_id" gorm:"not null;uniqueIndex:idx_thread_participants_thread_user,priority:2;index"`
	LastReadAt *time.Time     `json:"last_read_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	User       *user.User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Participant) TableName() string {
	return "thread_participants"
}
