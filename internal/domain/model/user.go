package model

import "time"

type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleCourier Role = "COURIER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleCourier:
		return true
	}
	return false
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Name         string `gorm:"type:varchar(255);not null;default:''" json:"name"`
	Phone        string `gorm:"type:varchar(30);not null;default:''" json:"phone"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER';index" json:"role"`
	//強制ログアウトで+1する
	TokenVersion int        `gorm:"not null;default:0" json:"token_version"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
