package dto

import "github.com/yigit/campusmesh/internal/app/models"

// UpdateProfileRequest carries the self-service profile fields.
// id, role and createdAt are not part of the contract and are dropped if sent.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,min=1,max=100"`
	PhotoURL    *string `json:"photoUrl" binding:"omitempty,url"`
	Department  *string `json:"department" binding:"omitempty,max=100"`
	Year        *string `json:"year" binding:"omitempty,max=20"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,max=30"`
}

// ToChanges converts the request into model changes
func (r UpdateProfileRequest) ToChanges() models.ProfileChanges {
	return models.ProfileChanges{
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		Department:  r.Department,
		Year:        r.Year,
		PhoneNumber: r.PhoneNumber,
	}
}

// UpdateRoleRequest is the payload of updateUserRole
type UpdateRoleRequest struct {
	Role models.RoleType `json:"role" binding:"required,oneof=student teacher admin" example:"teacher"`
}

// PushTokenRequest registers the caller's device push token
type PushTokenRequest struct {
	Token string `json:"token" binding:"required,max=4096"`
}

// ListUsersQuery filters the admin user listing
type ListUsersQuery struct {
	Role       string `form:"role" binding:"omitempty,oneof=student teacher admin"`
	ActiveOnly bool   `form:"activeOnly"`
	Page       int    `form:"page"`
	Size       int    `form:"size"`
}

// UserListResponse is a page of users
type UserListResponse struct {
	Users      []*models.User `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// AccountDeletedEvent is delivered when the auth provider removes an account
type AccountDeletedEvent struct {
	UID string `json:"uid" binding:"required"`
}

// AccountCleanup reports what onAccountDelete removed
type AccountCleanup struct {
	UserID               string `json:"userId"`
	MessagesDeleted      int64  `json:"messagesDeleted"`
	NotificationsDeleted int64  `json:"notificationsDeleted"`
	MembershipsRemoved   int64  `json:"membershipsRemoved"`
	GroupsDeactivated    int64  `json:"groupsDeactivated"`
}
