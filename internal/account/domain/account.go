package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxEmailLength is the longest email, in characters, an account may hold.
const MaxEmailLength = 320

// ErrDuplicateEmail is returned by stores when an insert collides with an
// existing account's email.
var ErrDuplicateEmail = errors.New("account email already exists")

// Role is a string tag that decides which operations an account may invoke.
// The set is open; RoleUser and RoleAdmin are the ones this service assigns.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is a registered principal. Email is stored lowercase.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail trims surrounding whitespace and lowercases email. Stores
// apply it on both insert and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the account for persistence and fills the default role.
// Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if utf8.RuneCountInString(a.Email) > MaxEmailLength {
		return errors.New("email is too long")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	return nil
}

// OneOf reports whether r is one of roles.
func (r Role) OneOf(roles ...Role) bool {
	return slices.Contains(roles, r)
}
