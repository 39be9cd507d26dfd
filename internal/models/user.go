package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleApplicant UserRole = "applicant"
	RoleReviewer  UserRole = "reviewer"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleApplicant, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may review applications.
func (r UserRole) IsStaff() bool {
	return r == RoleReviewer || r == RoleAdmin
}

// User represents an account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Mobile       string     `db:"mobile" json:"mobile"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Principal is the authenticated caller passed explicitly into every core operation.
type Principal struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// IsStaff reports whether the principal is a reviewer or admin.
func (p Principal) IsStaff() bool {
	return p.ID != "" && p.Role.IsStaff()
}
