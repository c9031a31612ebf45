package model

import "time"

// Role controls what a user may see and manage.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// User is an account that owns categories, websites and invitation codes.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	Nickname string `gorm:"size:100" json:"nickname,omitempty"`
	Theme    string `gorm:"size:50;not null;default:default" json:"theme"`

	Role     Role `gorm:"size:16;not null;default:user" json:"role"`
	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"-"`
}

// IsAdmin reports whether the user holds the admin or superadmin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}

// IsSuperadmin reports whether the user holds the superadmin role.
func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}
