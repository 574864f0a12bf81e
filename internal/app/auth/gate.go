package auth

import (
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// Action names an operation checked by the gate
type Action string

const (
	ActionCreateNotice Action = "createNotice"
	ActionUpdateNotice Action = "updateNotice"
	ActionDeleteNotice Action = "deleteNotice"

	ActionUpdateUserRole          Action = "updateUserRole"
	ActionProcessApproval         Action = "processApproval"
	ActionGenerateAnalyticsReport Action = "generateAnalyticsReport"
	ActionListUsers               Action = "listUsers"
	ActionListApprovals           Action = "listApprovals"

	ActionSendMessage          Action = "sendMessage"
	ActionMarkMessageRead      Action = "markMessageRead"
	ActionUpdateOwnProfile     Action = "updateOwnProfile"
	ActionRequestApproval      Action = "requestApproval"
	ActionTrackActivity        Action = "trackActivity"
	ActionMarkNotificationRead Action = "markNotificationRead"
	ActionRegisterPushToken    Action = "registerPushToken"

	ActionCreateGroup        Action = "createGroup"
	ActionManageGroupMembers Action = "manageGroupMembers"
)

// Deny reasons
const (
	ReasonUnauthenticated         = "unauthenticated"
	ReasonInsufficientPermissions = "insufficient permissions"
	ReasonNotOwner                = "caller does not own the target"
	ReasonAdminOnly               = "admin role required"
)

// Caller is the authenticated principal of a request. An empty ID means unauthenticated.
type Caller struct {
	ID   string
	Role models.RoleType
}

// IsAuthenticated reports whether the caller carries an identity.
func (c Caller) IsAuthenticated() bool {
	return c.ID != ""
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.IsAuthenticated() && c.Role == models.RoleAdmin
}

// Target is the identity an action acts on: the notice author, the message sender
// for send, the message recipient for markRead, the profile owner, the requester.
type Target struct {
	OwnerID string
}

// OwnedBy builds a target owned by id.
func OwnedBy(id string) *Target {
	return &Target{OwnerID: id}
}

// Decision is the gate outcome
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err converts a deny into the matching application error, nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonUnauthenticated {
		return apperrors.NewCustomError(apperrors.ErrUnauthenticated, "Authentication required")
	}
	return apperrors.NewForbiddenError("Permission denied: " + d.Reason)
}

var (
	noticeActions = map[Action]bool{
		ActionCreateNotice: true,
		ActionUpdateNotice: true,
		ActionDeleteNotice: true,
	}
	adminActions = map[Action]bool{
		ActionUpdateUserRole:          true,
		ActionProcessApproval:         true,
		ActionGenerateAnalyticsReport: true,
		ActionListUsers:               true,
		ActionListApprovals:           true,
	}
	selfActions = map[Action]bool{
		ActionSendMessage:          true,
		ActionMarkMessageRead:      true,
		ActionUpdateOwnProfile:     true,
		ActionRequestApproval:      true,
		ActionTrackActivity:        true,
		ActionMarkNotificationRead: true,
		ActionRegisterPushToken:    true,
	}
	groupActions = map[Action]bool{
		ActionCreateGroup:        true,
		ActionManageGroupMembers: true,
	}
)

// Authorize decides whether caller may perform action on target.
// Rules are evaluated in order and the first match wins. It performs no I/O.
// A nil target on a self-scoped action means the caller acts on their own identity.
func Authorize(caller Caller, action Action, target *Target) Decision {
	if !caller.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}

	switch {
	case noticeActions[action]:
		if action == ActionCreateNotice {
			if caller.Role.IsStaff() {
				return allow()
			}
			return deny(ReasonInsufficientPermissions)
		}
		// update and delete: the author, or an admin
		if caller.Role == models.RoleAdmin || (target != nil && target.OwnerID == caller.ID) {
			return allow()
		}
		return deny(ReasonInsufficientPermissions)

	case adminActions[action]:
		if caller.Role == models.RoleAdmin {
			return allow()
		}
		return deny(ReasonAdminOnly)

	case selfActions[action]:
		if target == nil || target.OwnerID == caller.ID {
			return allow()
		}
		return deny(ReasonNotOwner)

	case groupActions[action]:
		if action == ActionCreateGroup {
			if caller.Role.IsStaff() {
				return allow()
			}
			return deny(ReasonInsufficientPermissions)
		}
		if caller.Role == models.RoleAdmin || (target != nil && target.OwnerID == caller.ID) {
			return allow()
		}
		return deny(ReasonInsufficientPermissions)
	}

	return deny(ReasonInsufficientPermissions)
}

// Require is Authorize returning an error for a deny.
func Require(caller Caller, action Action, target *Target) error {
	return Authorize(caller, action, target).Err()
}
