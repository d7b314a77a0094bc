package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Bio       string    `json:"bio" db:"bio"`
	Image     string    `json:"image" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the public, viewer-aware rendering of a user
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// ProfileOf renders a user for a viewer; following is the viewer's edge to u
func ProfileOf(u *User, following bool) Profile {
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

// CreateUserInput is the payload for provisioning a user profile
type CreateUserInput struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Bio      string `json:"bio"`
	Image    string `json:"image" validate:"omitempty,url"`
}

// UpdateUserInput carries only the fields to change
type UpdateUserInput struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image" validate:"omitempty,url"`
}
