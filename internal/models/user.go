package models

import (
	"time"
)

// User roles
const (
	RoleRider  = "rider"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Role      string    `db:"role" json:"role"`
	Suspended bool      `db:"suspended" json:"suspended"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateUserRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=15"`
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=rider driver"`
}

type UserResponse struct {
	ID    string  `json:"id"`
	Phone string  `json:"phone"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Role  string  `json:"role"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:    u.ID,
		Phone: u.Phone,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Principal is the authenticated caller as seen by the engine. Identity and
// authentication live upstream; the engine only consumes this shape.
type Principal struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Suspended bool   `json:"suspended"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
