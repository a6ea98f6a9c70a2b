package models

import "time"

// Role is the closed set of principal roles. The ordering is
// student < admin < super_admin; the comparison itself lives in
// the authz package.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents an authenticated principal on the platform.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	RollNumber   string    `gorm:"size:64;uniqueIndex;not null" json:"roll_number"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         Role      `gorm:"size:32;not null;default:student" json:"role"`
	Suspended    bool      `gorm:"not null;default:false" json:"suspended"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsReviewer reports whether the user may review submitted documents.
func (u User) IsReviewer() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}
