package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of operator roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RolePreparer  Role = "preparer"
	RoleFrontdesk Role = "frontdesk"
)

// ParseRole normalises a raw role claim. ok is false for anything outside the enum.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RolePreparer, RoleFrontdesk:
		return r, true
	}
	return "", false
}

// RoleSet is a static allow-list declared per guarded operation.
type RoleSet []Role

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet { return RoleSet(roles) }

// Contains reports whether role is in the set.
func (rs RoleSet) Contains(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Strings renders the set for diagnostics.
func (rs RoleSet) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Account stores an operator. Email is kept lower-cased so the unique index is case-insensitive.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex:idx_accounts_email;not null"`
	Username     *string
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'frontdesk'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
