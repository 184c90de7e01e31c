package dto

import (
	"time"

	"github.com/coreconnect/backend/internal/model"
)

type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=30,alphanum"`
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url,max=500"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	Location  *string `json:"location" binding:"omitempty,max=100"`
	Website   *string `json:"website" binding:"omitempty,url,max=200"`
}

type UserResponse struct {
	ID         uint       `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username,omitempty"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Location   string     `json:"location,omitempty"`
	Website    string     `json:"website,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewUserResponse maps the storage model to the API shape
func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.UsernameOrEmpty(),
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       user.Role,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		AvatarURL:  user.AvatarURL,
		Bio:        user.Bio,
		Location:   user.Location,
		Website:    user.Website,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
