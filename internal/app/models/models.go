package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "student"
	RoleTeacher RoleType = "teacher"
	RoleAdmin   RoleType = "admin"
)

// IsValid reports whether r is a known role.
func (r RoleType) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may publish notices and create groups.
func (r RoleType) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// JSONMap is a free-form document payload stored as JSONB.
type JSONMap map[string]interface{}
