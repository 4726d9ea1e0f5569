package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID             string         `json:"id" bson:"_id"`
	Email          string         `json:"email" bson:"email"`
	HashedPassword string         `json:"-" bson:"hashed_password"`
	FullName       string         `json:"full_name" bson:"full_name"`
	Role           UserRole       `json:"role" bson:"role"`
	IsActive       bool           `json:"is_active" bson:"is_active"`
	IsVerified     bool           `json:"is_verified" bson:"is_verified"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
	LastLogin      *time.Time     `json:"last_login,omitempty" bson:"last_login,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	FullName *string        `json:"full_name,omitempty" binding:"omitempty,min=1,max=100"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UserSearchCriteria narrows the admin user listing. Zero values mean no
// filter.
type UserSearchCriteria struct {
	Role     UserRole `json:"role,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

type UserPage struct {
	Items    []User `json:"items"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
