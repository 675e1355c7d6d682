package user

import (
	"time"

	"threadbox/internal/access"
)

type User struct {
	ID        uint64      `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"not null"`
	Email     string      `json:"email" gorm:"uniqueIndex;not null"`
	Role      access.Role `json:"role" gorm:"type:varchar(16);not null;default:user"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (u *User) Principal() access.Principal {
	return access.Principal{ID: u.ID, Role: u.Role}
}

type UserListResponse struct {
	Success bool    `json:"success"`
	Data    []*User `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
