package model

import (
	"errors"
	"time"
)

// User represents an administrator or customer account.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Balance      float64      `json:"balance"`
	Role         string       `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty"`
	Activations  []Activation `json:"activations,omitempty"`
}

// Activation records an account activation attempt.
type Activation struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Code        string     `json:"-"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Identity is the read contract that identity-aware features depend on.
type Identity interface {
	IdentityID() int64
	IdentityUsername() string
	IdentityEmail() string
	IdentityPassword() string
	IdentityBalance() float64
	IdentityActivations() []Activation
}

var _ Identity = (*User)(nil)

func (u *User) IdentityID() int64                 { return u.ID }
func (u *User) IdentityUsername() string          { return u.Username }
func (u *User) IdentityEmail() string             { return u.Email }
func (u *User) IdentityPassword() string          { return u.PasswordHash }
func (u *User) IdentityBalance() float64          { return u.Balance }
func (u *User) IdentityActivations() []Activation { return u.Activations }

// Activated reports whether any of the identity's activations is completed.
func Activated(id Identity) bool {
	for _, a := range id.IdentityActivations() {
		if a.Completed {
			return true
		}
	}
	return false
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleUser
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   3,
		RoleManager: 2,
		RoleUser:    1,
	}
	l, ok := levels[role]
	if !ok {
		return false
	}
	m, ok := levels[minimum]
	if !ok {
		return false
	}
	return l >= m
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
