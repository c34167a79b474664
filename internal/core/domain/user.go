package domain

import (
	"errors"
	"time"
)

// Roles carried in the JWT role claim.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
)

// User models an authenticated API operator.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsKnownRole reports whether role is one the API grants.
func IsKnownRole(role string) bool {
	return role == RoleAdmin || role == RoleViewer
}

// CanManageEmployees reports whether role may create, update or delete
// employee records. Every known role may read them.
func CanManageEmployees(role string) bool {
	return role == RoleAdmin
}
