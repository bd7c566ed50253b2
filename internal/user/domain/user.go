package domain

import "time"

type ID string

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// IsElevated reports whether the role passes the binary elevated check.
func (r Role) IsElevated() bool {
	return r == RoleAdmin
}

type User struct {
	ID           ID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
