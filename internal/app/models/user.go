package models

import (
	"time"
)

// User defines the user profile stored in the 'users' table
type User struct {
	ID          string    `json:"id" db:"id" example:"6f1c2a4e-8d4b-4a8e-9a57-0d5f9b1a3c11"`
	Email       string    `json:"email" db:"email" example:"jane@college.edu"`
	DisplayName string    `json:"displayName" db:"display_name" example:"Jane Doe"`
	PhotoURL    *string   `json:"photoUrl,omitempty" db:"photo_url"`
	Role        RoleType  `json:"role" db:"role" example:"student"`
	Department  *string   `json:"department,omitempty" db:"department" example:"Computer Science"`
	Year        *string   `json:"year,omitempty" db:"year" example:"2nd"`
	PhoneNumber *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	PushToken   *string   `json:"-" db:"push_token"`
	IsActive    bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileChanges lists the self-service profile fields. Nil fields are left untouched.
// Identity, role and creation time are deliberately absent.
type ProfileChanges struct {
	DisplayName *string
	PhotoURL    *string
	Department  *string
	Year        *string
	PhoneNumber *string
}

// IsEmpty reports whether no field is set.
func (c ProfileChanges) IsEmpty() bool {
	return c.DisplayName == nil && c.PhotoURL == nil && c.Department == nil &&
		c.Year == nil && c.PhoneNumber == nil
}

// Apply copies the set fields onto u.
func (c ProfileChanges) Apply(u *User) {
	if c.DisplayName != nil {
		u.DisplayName = *c.DisplayName
	}
	if c.PhotoURL != nil {
		u.PhotoURL = c.PhotoURL
	}
	if c.Department != nil {
		u.Department = c.Department
	}
	if c.Year != nil {
		u.Year = c.Year
	}
	if c.PhoneNumber != nil {
		u.PhoneNumber = c.PhoneNumber
	}
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role       *RoleType
	ActiveOnly bool
	Offset     uint64
	Limit      int
}

// AuthUser is the identity delivered by the external auth provider on account events.
type AuthUser struct {
	UID         string  `json:"uid" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
	Department  *string `json:"department"`
	Year        *string `json:"year"`
}
