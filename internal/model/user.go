package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string     `gorm:"column:email;unique;not null"`
	Username     *string    `gorm:"column:username;unique;default:null"`
	FirstName    string     `gorm:"column:first_name"`
	LastName     string     `gorm:"column:last_name"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         string     `gorm:"column:role;default:user;not null"`
	IsActive     bool       `gorm:"column:is_active;default:true;not null"`
	IsVerified   bool       `gorm:"column:is_verified;default:false;not null"`
	AvatarURL    string     `gorm:"column:avatar_url"`
	Bio          string     `gorm:"column:bio"`
	Location     string     `gorm:"column:location"`
	Website      string     `gorm:"column:website"`
	LastLogin    *time.Time `gorm:"column:last_login;default:null"`
}

// UsernameOrEmpty returns the username, or "" when none was ever set.
func (u *User) UsernameOrEmpty() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}
