package models

import "time"

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBlock  UserStatus = "block"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Phone        string     `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Status       UserStatus `gorm:"size:20;not null;default:active;index" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) Blocked() bool {
	return u.Status == UserStatusBlock
}
