package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

func activeMembers(t *testing.T, h *harness, groupID string) int {
	t.Helper()
	members, err := h.repos.GroupRepository.ListMembers(context.Background(), groupID)
	require.NoError(t, err)
	n := 0
	for _, m := range members {
		if m.Status == models.MemberStatusActive {
			n++
		}
	}
	return n
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, "t1", models.RoleTeacher)
	student := h.user(t, "s1", models.RoleStudent)
	h.user(t, "s2", models.RoleStudent)
	h.user(t, "s3", models.RoleStudent)
	otherTeacher := h.user(t, "t2", models.RoleTeacher)
	admin := h.user(t, "a1", models.RoleAdmin)

	t.Run("students cannot create groups", func(t *testing.T) {
		_, err := h.svc.GroupService.CreateGroup(ctx, student, &dto.CreateGroupRequest{Name: "Club", GroupType: models.GroupTypeInterest})
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})

	group, err := h.svc.GroupService.CreateGroup(ctx, owner, &dto.CreateGroupRequest{Name: " CS101 ", GroupType: models.GroupTypeClass})
	require.NoError(t, err)
	assert.Equal(t, "CS101", group.Name)
	assert.Equal(t, 1, group.MemberCount)

	g, err := h.svc.GroupService.AddMember(ctx, owner, group.ID, &dto.AddMemberRequest{UserID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, g.MemberCount)

	g, err = h.svc.GroupService.AddMember(ctx, owner, group.ID, &dto.AddMemberRequest{UserID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 2, g.MemberCount, "re-adding an active member does not double count")

	t.Run("non managers are denied", func(t *testing.T) {
		_, err := h.svc.GroupService.AddMember(ctx, otherTeacher, group.ID, &dto.AddMemberRequest{UserID: "s2"})
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

		_, err = h.svc.GroupService.AddMember(ctx, student, group.ID, &dto.AddMemberRequest{UserID: "s2"})
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})

	t.Run("group admin member can manage", func(t *testing.T) {
		_, err := h.svc.GroupService.AddMember(ctx, owner, group.ID, &dto.AddMemberRequest{UserID: "t2", Role: models.MemberRoleAdmin})
		require.NoError(t, err)
		g, err := h.svc.GroupService.AddMember(ctx, otherTeacher, group.ID, &dto.AddMemberRequest{UserID: "s2"})
		require.NoError(t, err)
		assert.Equal(t, 4, g.MemberCount)
	})

	t.Run("platform admin can manage", func(t *testing.T) {
		g, err := h.svc.GroupService.AddMember(ctx, admin, group.ID, &dto.AddMemberRequest{UserID: "s3"})
		require.NoError(t, err)
		assert.Equal(t, 5, g.MemberCount)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := h.svc.GroupService.AddMember(ctx, owner, group.ID, &dto.AddMemberRequest{UserID: "ghost"})
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("member leaves", func(t *testing.T) {
		g, err := h.svc.GroupService.RemoveMember(ctx, student, group.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, 4, g.MemberCount)
	})

	t.Run("member cannot remove others", func(t *testing.T) {
		s2 := h.user(t, "s4", models.RoleStudent)
		_, err := h.svc.GroupService.RemoveMember(ctx, s2, group.ID, "s3")
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		_, err := h.svc.GroupService.RemoveMember(ctx, admin, group.ID, "t1")
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})

	t.Run("removing a non member", func(t *testing.T) {
		_, err := h.svc.GroupService.RemoveMember(ctx, owner, group.ID, "s1")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	final, err := h.svc.GroupService.GetGroup(ctx, owner, group.ID)
	require.NoError(t, err)
	assert.Equal(t, activeMembers(t, h, group.ID), final.MemberCount)

	members, err := h.svc.GroupService.ListMembers(ctx, otherTeacher, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 4)
}

func TestListMembersRequiresMembership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, "t1", models.RoleTeacher)
	outsider := h.user(t, "s1", models.RoleStudent)

	group, err := h.svc.GroupService.CreateGroup(ctx, owner, &dto.CreateGroupRequest{Name: "Staff", GroupType: models.GroupTypeDepartment})
	require.NoError(t, err)

	_, err = h.svc.GroupService.ListMembers(ctx, outsider, group.ID)
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

	_, err = h.svc.GroupService.ListMembers(ctx, owner, "missing")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	err = h.svc.GroupService.MarkGroupRead(ctx, outsider, group.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
