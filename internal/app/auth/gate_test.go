package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

var (
	student = Caller{ID: "u-student", Role: models.RoleStudent}
	teacher = Caller{ID: "u-teacher", Role: models.RoleTeacher}
	admin   = Caller{ID: "u-admin", Role: models.RoleAdmin}
	anon    = Caller{}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		caller  Caller
		action  Action
		target  *Target
		allowed bool
		reason  string
	}{
		{"anonymous create notice", anon, ActionCreateNotice, nil, false, ReasonUnauthenticated},
		{"anonymous send message", anon, ActionSendMessage, nil, false, ReasonUnauthenticated},
		{"anonymous with admin role", Caller{Role: models.RoleAdmin}, ActionProcessApproval, nil, false, ReasonUnauthenticated},

		{"teacher creates notice", teacher, ActionCreateNotice, nil, true, ""},
		{"admin creates notice", admin, ActionCreateNotice, nil, true, ""},
		{"student creates notice", student, ActionCreateNotice, nil, false, ReasonInsufficientPermissions},
		{"student creates notice claiming ownership", student, ActionCreateNotice, OwnedBy(student.ID), false, ReasonInsufficientPermissions},
		{"teacher updates other author's notice", teacher, ActionUpdateNotice, OwnedBy("someone"), false, ReasonInsufficientPermissions},
		{"teacher updates own notice", teacher, ActionUpdateNotice, OwnedBy(teacher.ID), true, ""},
		{"admin deletes other author's notice", admin, ActionDeleteNotice, OwnedBy("someone"), true, ""},
		{"teacher deletes without target", teacher, ActionDeleteNotice, nil, false, ReasonInsufficientPermissions},
		{"student updates own notice", student, ActionUpdateNotice, OwnedBy(student.ID), true, ""},
		{"student deletes own notice", student, ActionDeleteNotice, OwnedBy(student.ID), true, ""},
		{"student updates foreign notice", student, ActionUpdateNotice, OwnedBy("someone"), false, ReasonInsufficientPermissions},

		{"admin updates role", admin, ActionUpdateUserRole, nil, true, ""},
		{"teacher updates role", teacher, ActionUpdateUserRole, nil, false, ReasonAdminOnly},
		{"teacher processes approval", teacher, ActionProcessApproval, nil, false, ReasonAdminOnly},
		{"student generates report", student, ActionGenerateAnalyticsReport, nil, false, ReasonAdminOnly},
		{"admin generates report", admin, ActionGenerateAnalyticsReport, nil, true, ""},

		{"student sends as self", student, ActionSendMessage, OwnedBy(student.ID), true, ""},
		{"student sends as other", student, ActionSendMessage, OwnedBy(teacher.ID), false, ReasonNotOwner},
		{"admin sends as other", admin, ActionSendMessage, OwnedBy(teacher.ID), false, ReasonNotOwner},
		{"recipient marks read", teacher, ActionMarkMessageRead, OwnedBy(teacher.ID), true, ""},
		{"non recipient marks read", student, ActionMarkMessageRead, OwnedBy(teacher.ID), false, ReasonNotOwner},
		{"own profile without target", student, ActionUpdateOwnProfile, nil, true, ""},
		{"request approval", student, ActionRequestApproval, OwnedBy(student.ID), true, ""},
		{"track activity", student, ActionTrackActivity, nil, true, ""},

		{"teacher creates group", teacher, ActionCreateGroup, nil, true, ""},
		{"student creates group", student, ActionCreateGroup, nil, false, ReasonInsufficientPermissions},
		{"group owner manages members", student, ActionManageGroupMembers, OwnedBy(student.ID), true, ""},
		{"teacher manages foreign group", teacher, ActionManageGroupMembers, OwnedBy("someone"), false, ReasonInsufficientPermissions},
		{"admin manages any group", admin, ActionManageGroupMembers, OwnedBy("someone"), true, ""},

		{"unknown action", admin, Action("dropDatabase"), nil, false, ReasonInsufficientPermissions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.caller, tt.action, tt.target)
			assert.Equal(t, tt.allowed, got.Allowed)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestAuthorizeIsDeterministic(t *testing.T) {
	callers := []Caller{anon, student, teacher, admin}
	actions := []Action{
		ActionCreateNotice, ActionUpdateNotice, ActionDeleteNotice, ActionUpdateUserRole,
		ActionProcessApproval, ActionGenerateAnalyticsReport, ActionSendMessage,
		ActionMarkMessageRead, ActionUpdateOwnProfile, ActionRequestApproval, ActionTrackActivity,
	}
	targets := []*Target{nil, OwnedBy(student.ID), OwnedBy(teacher.ID)}

	for _, c := range callers {
		for _, a := range actions {
			for _, tg := range targets {
				assert.Equal(t, Authorize(c, a, tg), Authorize(c, a, tg))
			}
		}
	}
}

func TestDecisionErr(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		assert.NoError(t, Require(admin, ActionProcessApproval, nil))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		err := Require(anon, ActionTrackActivity, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
	})

	t.Run("denied", func(t *testing.T) {
		err := Require(student, ActionProcessApproval, nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
		assert.Contains(t, err.Error(), ReasonAdminOnly)
	})
}
