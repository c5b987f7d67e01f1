package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Account models a registered author or administrator of the platform.
type Account struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsActive reports whether the account may sign in.
func (a *Account) IsActive() bool {
	return a.Status == "" || a.Status == StatusActive
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
