package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// steppingClock advances one second per call
func steppingClock() Clock {
	t := epoch
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRepos() *repositories.Repositories {
	return NewRepositories(WithClock(steppingClock()))
}

func seedUser(t *testing.T, repos *repositories.Repositories, id string, role models.RoleType) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@campus.test", DisplayName: id, Role: role, IsActive: true}
	require.NoError(t, repos.UserRepository.Create(context.Background(), u))
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	u := seedUser(t, repos, "u1", models.RoleStudent)
	assert.False(t, u.CreatedAt.IsZero())

	t.Run("duplicate id", func(t *testing.T) {
		err := repos.UserRepository.Create(ctx, &models.User{ID: "u1", Email: "other@campus.test"})
		assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := repos.UserRepository.Create(ctx, &models.User{ID: "u2", Email: "U1@campus.test"})
		assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		got, err := repos.UserRepository.GetByID(ctx, "u1")
		require.NoError(t, err)
		got.DisplayName = "mutated"

		again, err := repos.UserRepository.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", again.DisplayName)
	})

	t.Run("update profile keeps identity fields", func(t *testing.T) {
		name := "New Name"
		updated, err := repos.UserRepository.UpdateProfile(ctx, "u1", models.ProfileChanges{DisplayName: &name})
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.DisplayName)
		assert.Equal(t, models.RoleStudent, updated.Role)
		assert.Equal(t, u.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(u.CreatedAt))
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repos.UserRepository.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.ErrorIs(t, repos.UserRepository.UpdateRole(ctx, "nope", models.RoleAdmin), apperrors.ErrUserNotFound)
	})
}

func TestListActiveByAudience(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	seedUser(t, repos, "s2", models.RoleStudent)
	seedUser(t, repos, "s1", models.RoleStudent)
	seedUser(t, repos, "t1", models.RoleTeacher)
	inactive := &models.User{ID: "s3", Email: "s3@campus.test", Role: models.RoleStudent}
	require.NoError(t, repos.UserRepository.Create(ctx, inactive))

	students, err := repos.UserRepository.ListActiveByAudience(ctx, models.AudienceStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "s1", students[0].ID)
	assert.Equal(t, "s2", students[1].ID)

	everyone, err := repos.UserRepository.ListActiveByAudience(ctx, models.AudienceAll)
	require.NoError(t, err)
	assert.Len(t, everyone, 3)
}

func TestUserListPagination(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	for i := 0; i < 5; i++ {
		seedUser(t, repos, fmt.Sprintf("u%d", i), models.RoleStudent)
	}

	page, total, err := repos.UserRepository.List(ctx, models.UserFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	// newest first
	assert.Equal(t, "u2", page[0].ID)
	assert.Equal(t, "u1", page[1].ID)

	past, total, err := repos.UserRepository.List(ctx, models.UserFilter{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, past)
}

func TestMessageMarkRead(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	msg := &models.Message{ID: "m1", SenderID: "a", RecipientID: "b", Content: "hi", Type: models.MessageTypeText}
	require.NoError(t, repos.MessageRepository.Create(ctx, msg))
	assert.NotNil(t, msg.MentionIDs)

	changed, err := repos.MessageRepository.MarkRead(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, changed)

	first, err := repos.MessageRepository.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	changed, err = repos.MessageRepository.MarkRead(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, changed)

	second, err := repos.MessageRepository.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, *first.ReadAt, *second.ReadAt)

	_, err = repos.MessageRepository.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
}

func TestMessageConversationAndCascade(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	group := "g1"

	msgs := []*models.Message{
		{ID: "m1", SenderID: "a", RecipientID: "b", Content: "1"},
		{ID: "m2", SenderID: "b", RecipientID: "a", Content: "2"},
		{ID: "m3", SenderID: "a", RecipientID: "c", Content: "3"},
		{ID: "m4", SenderID: "c", RecipientID: group, GroupID: &group, IsGroupMessage: true, Content: "4"},
		{ID: "m5", SenderID: "a", RecipientID: "b", Content: "5"},
	}
	for _, m := range msgs {
		require.NoError(t, repos.MessageRepository.Create(ctx, m))
	}

	conv, err := repos.MessageRepository.ListConversation(ctx, "b", "a", 2)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "m2", conv[0].ID)
	assert.Equal(t, "m5", conv[1].ID)

	groupMsgs, err := repos.MessageRepository.ListByGroup(ctx, group, 0)
	require.NoError(t, err)
	require.Len(t, groupMsgs, 1)

	n, err := repos.MessageRepository.DeleteByRecipient(ctx, group)
	require.NoError(t, err)
	assert.Zero(t, n, "group messages are not removed by recipient cascade")

	n, err = repos.MessageRepository.DeleteBySender(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repos.MessageRepository.GetByID(ctx, "m2")
	assert.NoError(t, err)
}

func TestNotificationCreateBatch(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	t.Run("too large", func(t *testing.T) {
		batch := make([]*models.Notification, repositories.MaxBatchSize+1)
		for i := range batch {
			batch[i] = &models.Notification{ID: fmt.Sprintf("big-%d", i), UserID: "u"}
		}
		err := repos.NotificationRepository.CreateBatch(ctx, batch)
		assert.ErrorIs(t, err, repositories.ErrBatchTooLarge)

		list, err := repos.NotificationRepository.ListByUser(ctx, "u", false, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("all or nothing", func(t *testing.T) {
		require.NoError(t, repos.NotificationRepository.CreateBatch(ctx, []*models.Notification{{ID: "n1", UserID: "u"}}))

		err := repos.NotificationRepository.CreateBatch(ctx, []*models.Notification{
			{ID: "n2", UserID: "u"},
			{ID: "n1", UserID: "u"},
		})
		assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)

		_, err = repos.NotificationRepository.GetByID(ctx, "n2")
		assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
	})

	t.Run("unread filter", func(t *testing.T) {
		require.NoError(t, repos.NotificationRepository.MarkRead(ctx, "n1"))
		require.NoError(t, repos.NotificationRepository.CreateBatch(ctx, []*models.Notification{{ID: "n3", UserID: "u"}}))

		unread, err := repos.NotificationRepository.ListByUser(ctx, "u", true, 0)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, "n3", unread[0].ID)
	})
}

func TestApprovalResolve(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	req := &models.ApprovalRequest{ID: "r1", UserID: "u", Type: models.ApprovalTypeRoleChange}
	require.NoError(t, repos.ApprovalRepository.Create(ctx, req))
	assert.Equal(t, models.ApprovalPending, req.Status)
	assert.NotNil(t, req.Data)

	reason := "looks good"
	resolved, err := repos.ApprovalRepository.Resolve(ctx, "r1", models.ApprovalDecision{
		Status: models.ApprovalApproved, ProcessedBy: "admin", Reason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, resolved.Status)
	require.NotNil(t, resolved.ProcessedBy)
	assert.Equal(t, "admin", *resolved.ProcessedBy)

	_, err = repos.ApprovalRepository.Resolve(ctx, "r1", models.ApprovalDecision{
		Status: models.ApprovalRejected, ProcessedBy: "other",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))

	after, err := repos.ApprovalRepository.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, resolved, after)

	_, err = repos.ApprovalRepository.Resolve(ctx, "missing", models.ApprovalDecision{Status: models.ApprovalApproved})
	assert.ErrorIs(t, err, apperrors.ErrApprovalNotFound)
}

func TestGroupMemberCount(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	group := &models.Group{ID: "g1", Name: "Physics", OwnerID: "owner", GroupType: models.GroupTypeClass, IsActive: true}
	owner := &models.GroupMember{GroupID: "g1", UserID: "owner", Role: models.MemberRoleAdmin, Status: models.MemberStatusActive}
	require.NoError(t, repos.GroupRepository.Create(ctx, group, owner))
	assert.Equal(t, 1, group.MemberCount)

	g, err := repos.GroupRepository.AddMember(ctx, &models.GroupMember{GroupID: "g1", UserID: "a", Role: models.MemberRoleMember, Status: models.MemberStatusActive})
	require.NoError(t, err)
	assert.Equal(t, 2, g.MemberCount)

	g, err = repos.GroupRepository.AddMember(ctx, &models.GroupMember{GroupID: "g1", UserID: "b", Role: models.MemberRoleMember, Status: models.MemberStatusMuted})
	require.NoError(t, err)
	assert.Equal(t, 2, g.MemberCount, "muted members are not counted")

	// re-adding is an upsert
	g, err = repos.GroupRepository.AddMember(ctx, &models.GroupMember{GroupID: "g1", UserID: "a", Role: models.MemberRoleModerator, Status: models.MemberStatusActive})
	require.NoError(t, err)
	assert.Equal(t, 2, g.MemberCount)

	require.NoError(t, repos.GroupRepository.IncrementUnread(ctx, "g1", "owner"))
	a, err := repos.GroupRepository.GetMember(ctx, "g1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.UnreadCount)
	ownerRow, err := repos.GroupRepository.GetMember(ctx, "g1", "owner")
	require.NoError(t, err)
	assert.Zero(t, ownerRow.UnreadCount)

	require.NoError(t, repos.GroupRepository.ResetUnread(ctx, "g1", "a"))
	a, err = repos.GroupRepository.GetMember(ctx, "g1", "a")
	require.NoError(t, err)
	assert.Zero(t, a.UnreadCount)

	g, err = repos.GroupRepository.RemoveMember(ctx, "g1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, g.MemberCount)

	_, err = repos.GroupRepository.RemoveMember(ctx, "g1", "a")
	assert.ErrorIs(t, err, apperrors.ErrMemberNotFound)

	deactivated, err := repos.GroupRepository.DeactivateOwnedGroups(ctx, "b")
	require.NoError(t, err)
	assert.Zero(t, deactivated)

	n, err := repos.GroupRepository.RemoveUserMemberships(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	g, err = repos.GroupRepository.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Zero(t, g.MemberCount)

	members, err := repos.GroupRepository.ListMembers(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "b", members[0].UserID)

	deactivated, err = repos.GroupRepository.DeactivateOwnedGroups(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deactivated)
	g, err = repos.GroupRepository.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, g.IsActive)

	deactivated, err = repos.GroupRepository.DeactivateOwnedGroups(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, deactivated)
}

func TestActivityWindowIsInclusive(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()

	for i := 0; i < 3; i++ {
		require.NoError(t, repos.ActivityRepository.Create(ctx, &models.UserActivity{
			ID: fmt.Sprintf("a%d", i), UserID: "u", Action: "login",
		}))
	}
	// stamps are epoch+1s, +2s, +3s
	got, err := repos.ActivityRepository.ListCreatedBetween(ctx, models.TimeRange{
		Start: epoch.Add(time.Second),
		End:   epoch.Add(2 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a0", got[0].ID)
	assert.Equal(t, "a1", got[1].ID)
}
