package models

import "time"

// GroupType is the purpose of a group
type GroupType string

const (
	GroupTypeClass      GroupType = "class"
	GroupTypeDepartment GroupType = "department"
	GroupTypeProject    GroupType = "project"
	GroupTypeInterest   GroupType = "interest"
)

// IsValid reports whether t is a known group type.
func (t GroupType) IsValid() bool {
	switch t {
	case GroupTypeClass, GroupTypeDepartment, GroupTypeProject, GroupTypeInterest:
		return true
	}
	return false
}

// MemberRole is a member's role inside a group
type MemberRole string

const (
	MemberRoleAdmin     MemberRole = "admin"
	MemberRoleModerator MemberRole = "moderator"
	MemberRoleMember    MemberRole = "member"
)

// MemberStatus is a member's standing inside a group
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusMuted    MemberStatus = "muted"
	MemberStatusBlocked  MemberStatus = "blocked"
	MemberStatusInactive MemberStatus = "inactive"
)

// Group is a messaging group. MemberCount equals the number of active members.
type Group struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	GroupType   GroupType `json:"groupType" db:"group_type"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// GroupMember links a user to a group
type GroupMember struct {
	GroupID     string       `json:"groupId" db:"group_id"`
	UserID      string       `json:"userId" db:"user_id"`
	Role        MemberRole   `json:"role" db:"role"`
	Status      MemberStatus `json:"status" db:"status"`
	JoinedAt    time.Time    `json:"joinedAt" db:"joined_at"`
	UnreadCount int          `json:"unreadCount" db:"unread_count"`
}
