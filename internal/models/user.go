package models

import "time"

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`    // Never expose in JSON
	Role           string    `json:"role"` // admin or user
	DepartmentID   *int64    `json:"department_id,omitempty"`
	DepartmentName string    `json:"department_name,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CreateUserRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Name         string `json:"name" validate:"required,max=120"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"omitempty,oneof=admin user"`
	DepartmentID *int64 `json:"department_id"`
}

type UpdateUserRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Password     string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	Role         string `json:"role" validate:"required,oneof=admin user"`
	DepartmentID *int64 `json:"department_id"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}
