// Package models - user.go defines the User model for service accounts with email,
// display name, and role, along with the sanitized view returned by the API.
package models

import (
	"strings"
	"time"
)

// Roles assignable to accounts
const (
	RoleAdmin = "admin"
	RoleUser  = "usuario"
)

// ValidRole reports whether role is one of the assignable roles
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User represents an account in the system. Email is the identity;
// PasswordHash is a bcrypt hash and must never leave the server.
type User struct {
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"password"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// PublicUser is the view of a User safe to return over the API
type PublicUser struct {
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Public strips the password hash from a User
func (u *User) Public() PublicUser {
	return PublicUser{
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DefaultName derives a display name from an email address when the
// caller did not provide one.
func DefaultName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
