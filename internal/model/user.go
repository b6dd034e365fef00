package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a staff role. Every route is gated on an allow-list of roles.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleLabTech      Role = "LAB_TECH"
	RolePathologist  Role = "PATHOLOGIST"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleDoctor       Role = "DOCTOR"
)

// ValidRole reports whether r is one of the known staff roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleLabTech, RolePathologist, RoleReceptionist, RoleDoctor:
		return true
	}
	return false
}

// User represents a staff account.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLogin    *time.Time `json:"lastLogin" db:"last_login"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// UserName is the abbreviated user shape embedded in order responses.
type UserName struct {
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
}

// UserListParams are query parameters for the user list endpoint.
type UserListParams struct {
	ListParams
	Role   string `form:"role"`
	Active string `form:"active,default=true"`
}

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      Role   `json:"role" binding:"required,oneof=ADMIN LAB_TECH PATHOLOGIST RECEPTIONIST DOCTOR"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Role      *Role   `json:"role" binding:"omitempty,oneof=ADMIN LAB_TECH PATHOLOGIST RECEPTIONIST DOCTOR"`
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	IsActive  *bool   `json:"isActive"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// UserListResponse is the payload of GET /users.
type UserListResponse struct {
	Users      []*User    `json:"users"`
	Pagination Pagination `json:"pagination"`
}
