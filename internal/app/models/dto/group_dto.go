package dto

import "github.com/yigit/campusmesh/internal/app/models"

// CreateGroupRequest is the payload for creating a group
type CreateGroupRequest struct {
	Name        string           `json:"name" binding:"required,max=100" example:"CS101 Fall"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	GroupType   models.GroupType `json:"groupType" binding:"required,oneof=class department project interest" example:"class"`
}

// AddMemberRequest adds a user to a group
type AddMemberRequest struct {
	UserID string            `json:"userId" binding:"required"`
	Role   models.MemberRole `json:"role" binding:"omitempty,oneof=admin moderator member"`
}

// GroupResponse is the result of creating a group
type GroupResponse struct {
	Group *models.Group `json:"group"`
}
