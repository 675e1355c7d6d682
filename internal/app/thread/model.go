package thread

import (
	"time"

	"threadbox/internal/app/user"

	"gorm.io/gorm"
)

type Thread struct {
	ID        uint64         `json:"id" gorm:"primaryKey"`
	Subject   string         `json:"subject" gorm:"size:255;not null"`
	CreatedBy uint64         `json:"created_by" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"index"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Creator   *user.User     `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}
