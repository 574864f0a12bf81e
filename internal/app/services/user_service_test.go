package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

func TestOnAccountCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	dept := "Physics"

	user, created, err := h.svc.UserService.OnAccountCreate(ctx, models.AuthUser{
		UID:         "uid-1",
		Email:       "jane@college.test",
		DisplayName: "Jane",
		Department:  &dept,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, "Physics", *user.Department)

	again, created, err := h.svc.UserService.OnAccountCreate(ctx, models.AuthUser{UID: "uid-1", Email: "other@college.test", DisplayName: "Changed"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Jane", again.DisplayName)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)

	_, _, err = h.svc.UserService.OnAccountCreate(ctx, models.AuthUser{Email: "x@college.test"})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestUpdateOwnProfileKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	caller := h.user(t, "s1", models.RoleStudent)
	before, err := h.repos.UserRepository.GetByID(ctx, "s1")
	require.NoError(t, err)

	name := "  Sam  "
	year := "3rd"
	updated, err := h.svc.UserService.UpdateOwnProfile(ctx, caller, &dto.UpdateProfileRequest{DisplayName: &name, Year: &year})
	require.NoError(t, err)

	assert.Equal(t, "Sam", updated.DisplayName)
	assert.Equal(t, "3rd", *updated.Year)
	assert.Equal(t, before.ID, updated.ID)
	assert.Equal(t, before.Role, updated.Role)
	assert.Equal(t, before.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))

	blank := " "
	_, err = h.svc.UserService.UpdateOwnProfile(ctx, caller, &dto.UpdateProfileRequest{DisplayName: &blank})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	_, err = h.svc.UserService.UpdateOwnProfile(ctx, anonymousCaller, &dto.UpdateProfileRequest{DisplayName: &name})
	assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
}

func TestUpdateUserRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	admin := h.user(t, "a1", models.RoleAdmin)
	teacher := h.user(t, "t1", models.RoleTeacher)
	h.user(t, "s1", models.RoleStudent)

	_, err := h.svc.UserService.UpdateUserRole(ctx, teacher, "s1", models.RoleTeacher)
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

	_, err = h.svc.UserService.UpdateUserRole(ctx, admin, "s1", "dean")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	_, err = h.svc.UserService.UpdateUserRole(ctx, admin, "ghost", models.RoleTeacher)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	updated, err := h.svc.UserService.UpdateUserRole(ctx, admin, "s1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, updated.Role)
}

func TestListUsersPagination(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	admin := h.user(t, "a1", models.RoleAdmin)
	for _, id := range []string{"s1", "s2", "s3"} {
		h.user(t, id, models.RoleStudent)
	}

	page, err := h.svc.UserService.ListUsers(ctx, admin, dto.ListUsersQuery{Role: "student", Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Users, 1)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.CurrentPage)

	student := auth.Caller{ID: "s1", Role: models.RoleStudent}
	_, err = h.svc.UserService.ListUsers(ctx, student, dto.ListUsersQuery{})
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
}

func TestRegisterPushToken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	caller := h.user(t, "s1", models.RoleStudent)

	require.NoError(t, h.svc.UserService.RegisterPushToken(ctx, caller, " tok "))
	u, err := h.repos.UserRepository.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, u.PushToken)
	assert.Equal(t, "tok", *u.PushToken)

	require.NoError(t, h.svc.UserService.RegisterPushToken(ctx, caller, ""))
	u, err = h.repos.UserRepository.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, u.PushToken)
}

// seedAccountData gives "gone" a sent message, a received message, a group
// membership and a notification
func seedAccountData(t *testing.T, h *harness) string {
	t.Helper()
	ctx := context.Background()
	gone := h.user(t, "gone", models.RoleStudent)
	peer := h.user(t, "peer", models.RoleStudent)
	teacher := h.user(t, "t1", models.RoleTeacher)

	_, err := h.svc.MessageService.SendMessage(ctx, gone, &dto.SendMessageRequest{RecipientID: "peer", Content: "from gone"})
	require.NoError(t, err)
	_, err = h.svc.MessageService.SendMessage(ctx, peer, &dto.SendMessageRequest{RecipientID: "gone", Content: "to gone"})
	require.NoError(t, err)

	group, err := h.svc.GroupService.CreateGroup(ctx, teacher, &dto.CreateGroupRequest{Name: "Lab", GroupType: models.GroupTypeProject})
	require.NoError(t, err)
	g, err := h.svc.GroupService.AddMember(ctx, teacher, group.ID, &dto.AddMemberRequest{UserID: "gone"})
	require.NoError(t, err)
	require.Equal(t, 2, g.MemberCount)
	return group.ID
}

func TestOnAccountDeleteSenderOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	groupID := seedAccountData(t, h)

	cleanup, err := h.svc.UserService.OnAccountDelete(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleanup.MessagesDeleted)
	assert.Equal(t, int64(1), cleanup.MembershipsRemoved)
	assert.Equal(t, int64(1), cleanup.NotificationsDeleted)
	assert.Zero(t, cleanup.GroupsDeactivated)

	_, err = h.repos.UserRepository.GetByID(ctx, "gone")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	// the message peer sent to the deleted account is retained
	kept, err := h.repos.MessageRepository.ListConversation(ctx, "peer", "gone", 10)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "to gone", kept[0].Content)

	group, err := h.repos.GroupRepository.GetByID(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, 1, group.MemberCount)

	t.Run("repeat delivery is harmless", func(t *testing.T) {
		again, err := h.svc.UserService.OnAccountDelete(ctx, "gone")
		require.NoError(t, err)
		assert.Equal(t, int64(0), again.MessagesDeleted)
	})
}

func TestOnAccountDeleteSenderAndRecipient(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withCascade(CascadeSenderAndRecipient))
	seedAccountData(t, h)

	cleanup, err := h.svc.UserService.OnAccountDelete(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleanup.MessagesDeleted)

	left, err := h.repos.MessageRepository.ListConversation(ctx, "peer", "gone", 10)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestOnAccountDeleteDeactivatesOwnedGroups(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	groupID := seedAccountData(t, h)
	peer := auth.Caller{ID: "peer", Role: models.RoleStudent}
	teacher := auth.Caller{ID: "t1", Role: models.RoleTeacher}
	_, err := h.svc.GroupService.AddMember(ctx, teacher, groupID, &dto.AddMemberRequest{UserID: "peer"})
	require.NoError(t, err)

	cleanup, err := h.svc.UserService.OnAccountDelete(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleanup.GroupsDeactivated)

	group, err := h.repos.GroupRepository.GetByID(ctx, groupID)
	require.NoError(t, err)
	assert.False(t, group.IsActive)

	_, err = h.svc.MessageService.SendMessage(ctx, peer, &dto.SendMessageRequest{GroupID: &groupID, Content: "anyone here?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	again, err := h.svc.UserService.OnAccountDelete(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, again.GroupsDeactivated)
}

func TestUploadProfileImage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withStorage(t))
	me := h.user(t, "u1", models.RoleStudent)

	first, err := h.svc.UserService.UploadProfileImage(ctx, me, upload(t, "me.png", []byte("png-1")))
	require.NoError(t, err)
	require.NotNil(t, first.PhotoURL)
	assert.Contains(t, *first.PhotoURL, "/profile-images/")
	assert.Equal(t, models.RoleStudent, first.Role)

	second, err := h.svc.UserService.UploadProfileImage(ctx, me, upload(t, "me.jpg", []byte("jpg-2")))
	require.NoError(t, err)
	assert.NotEqual(t, *first.PhotoURL, *second.PhotoURL)

	_, err = h.svc.UserService.UploadProfileImage(ctx, me, upload(t, "cv.pdf", []byte("%PDF")))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	stored, err := h.svc.UserService.GetUser(ctx, me, me.ID)
	require.NoError(t, err)
	assert.Equal(t, *second.PhotoURL, *stored.PhotoURL)
}
