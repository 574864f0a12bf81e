package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

func examNotice(audience models.Audience) *dto.CreateNoticeRequest {
	return &dto.CreateNoticeRequest{
		Title:          "Exam",
		Content:        "Midterms start on Monday.",
		Type:           models.NoticeTypeExam,
		TargetAudience: audience,
	}
}

func TestCreateNoticeFansOutToAudience(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	admin := h.user(t, "u1", models.RoleAdmin)
	for i := 1; i <= 3; i++ {
		h.user(t, fmt.Sprintf("student-%d", i), models.RoleStudent)
	}
	h.inactiveUser(t, "student-gone", models.RoleStudent)
	h.user(t, "teacher-1", models.RoleTeacher)

	notice, result, err := h.svc.NoticeService.CreateNotice(ctx, admin, examNotice(models.AudienceStudent))
	require.NoError(t, err)

	assert.True(t, result.PrimaryWriteOK)
	assert.True(t, result.FanoutOK)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Delivered)
	assert.Empty(t, result.FanoutErrors)

	for i := 1; i <= 3; i++ {
		inbox := h.inbox(t, fmt.Sprintf("student-%d", i))
		require.Len(t, inbox, 1)
		n := inbox[0]
		assert.Equal(t, models.NotificationTypeNotice, n.Type)
		assert.Equal(t, "Exam", n.Title)
		assert.False(t, n.IsRead)
		assert.Equal(t, notice.ID, n.Data["noticeId"])
		assert.Equal(t, "exam", n.Data["noticeType"])
	}
	assert.Empty(t, h.inbox(t, "student-gone"))
	assert.Empty(t, h.inbox(t, "teacher-1"))
	assert.Empty(t, h.inbox(t, "u1"))
	assert.Equal(t, 3, h.notifier.count(websocket.EventNotification))
}

func TestCreateNoticeAudienceAllIncludesAuthor(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(t, "t1", models.RoleTeacher)
	h.user(t, "s1", models.RoleStudent)
	h.user(t, "a1", models.RoleAdmin)

	_, result, err := h.svc.NoticeService.CreateNotice(context.Background(), teacher, examNotice(models.AudienceAll))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Delivered)
	assert.Len(t, h.inbox(t, "t1"), 1)
}

func TestCreateNoticeAssignsServerFields(t *testing.T) {
	h := newHarness(t)
	teacher := h.user(t, "t1", models.RoleTeacher)
	h.user(t, "s1", models.RoleStudent)

	req := examNotice(models.AudienceStudent)
	req.Content = strings.Repeat("é", 150)

	notice, _, err := h.svc.NoticeService.CreateNotice(context.Background(), teacher, req)
	require.NoError(t, err)

	assert.NotEmpty(t, notice.ID)
	assert.True(t, notice.IsActive)
	assert.Equal(t, "t1", notice.AuthorID)
	assert.Equal(t, "User t1", notice.AuthorName)
	assert.False(t, notice.CreatedAt.IsZero())
	assert.Equal(t, notice.CreatedAt, notice.UpdatedAt)

	inbox := h.inbox(t, "s1")
	require.Len(t, inbox, 1)
	assert.Equal(t, strings.Repeat("é", 100)+"...", inbox[0].Body)
}

func TestCreateNoticePermissionAndValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	student := h.user(t, "s1", models.RoleStudent)
	teacher := h.user(t, "t1", models.RoleTeacher)

	t.Run("student is denied", func(t *testing.T) {
		_, _, err := h.svc.NoticeService.CreateNotice(ctx, student, examNotice(models.AudienceAll))
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

		list, err := h.svc.NoticeService.ListNotices(ctx, teacher, dto.ListNoticesQuery{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("blank title", func(t *testing.T) {
		req := examNotice(models.AudienceAll)
		req.Title = "   "
		_, _, err := h.svc.NoticeService.CreateNotice(ctx, teacher, req)
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})

	t.Run("unknown audience", func(t *testing.T) {
		_, _, err := h.svc.NoticeService.CreateNotice(ctx, teacher, examNotice("alumni"))
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})
}

func TestCreateNoticePartialFanoutKeepsNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withBatchSize(2), withFailingBatches(2))

	admin := h.user(t, "a1", models.RoleAdmin)
	for i := 1; i <= 5; i++ {
		h.user(t, fmt.Sprintf("s%d", i), models.RoleStudent)
	}

	notice, result, err := h.svc.NoticeService.CreateNotice(ctx, admin, examNotice(models.AudienceAll))
	require.NoError(t, err)

	assert.True(t, result.PrimaryWriteOK)
	assert.False(t, result.FanoutOK)
	assert.Equal(t, 6, result.Attempted)
	assert.Equal(t, 4, result.Delivered)
	require.Len(t, result.FanoutErrors, 1)
	assert.ErrorIs(t, result.FanoutErrors[0], errStoreDown)
	assert.Equal(t, []int{2, 2, 2}, h.flaky.batches)

	stored, err := h.svc.NoticeService.GetNotice(ctx, admin, notice.ID)
	require.NoError(t, err)
	assert.Equal(t, notice.ID, stored.ID)
}

func TestUpdateNoticeOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, "u5", models.RoleTeacher)
	other := h.user(t, "u6", models.RoleTeacher)
	admin := h.user(t, "a1", models.RoleAdmin)

	notice, _, err := h.svc.NoticeService.CreateNotice(ctx, owner, examNotice(models.AudienceAll))
	require.NoError(t, err)

	title := "Exam (moved)"
	updated, err := h.svc.NoticeService.UpdateNotice(ctx, owner, notice.ID, &dto.UpdateNoticeRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "u5", updated.AuthorID)
	assert.Equal(t, notice.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(notice.UpdatedAt))

	hijack := "Mine now"
	_, err = h.svc.NoticeService.UpdateNotice(ctx, other, notice.ID, &dto.UpdateNoticeRequest{Title: &hijack})
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

	current, err := h.svc.NoticeService.GetNotice(ctx, other, notice.ID)
	require.NoError(t, err)
	assert.Equal(t, title, current.Title)

	adminTitle := "Exam (final)"
	_, err = h.svc.NoticeService.UpdateNotice(ctx, admin, notice.ID, &dto.UpdateNoticeRequest{Title: &adminTitle})
	assert.NoError(t, err)

	empty := " "
	_, err = h.svc.NoticeService.UpdateNotice(ctx, owner, notice.ID, &dto.UpdateNoticeRequest{Title: &empty})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	_, err = h.svc.NoticeService.UpdateNotice(ctx, owner, "missing", &dto.UpdateNoticeRequest{Title: &title})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestToggleAndDeleteNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.user(t, "t1", models.RoleTeacher)
	student := h.user(t, "s1", models.RoleStudent)

	notice, _, err := h.svc.NoticeService.CreateNotice(ctx, owner, examNotice(models.AudienceAll))
	require.NoError(t, err)

	toggled, err := h.svc.NoticeService.ToggleActive(ctx, owner, notice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err := h.svc.NoticeService.ListNotices(ctx, student, dto.ListNoticesQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(h.svc.NoticeService.DeleteNotice(ctx, student, notice.ID)))
	require.NoError(t, h.svc.NoticeService.DeleteNotice(ctx, owner, notice.ID))

	_, err = h.svc.NoticeService.GetNotice(ctx, owner, notice.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestNoticeAttachments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withStorage(t))
	author := h.user(t, "teacher-1", models.RoleTeacher)
	other := h.user(t, "teacher-2", models.RoleTeacher)

	notice, _, err := h.svc.NoticeService.CreateNotice(ctx, author, examNotice(models.AudienceStudent))
	require.NoError(t, err)

	updated, err := h.svc.NoticeService.AddAttachment(ctx, author, notice.ID, upload(t, "syllabus.pdf", []byte("%PDF-1.7")))
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.True(t, strings.Contains(updated.Attachments[0], "/notice-attachments/"), updated.Attachments[0])

	_, err = h.svc.NoticeService.AddAttachment(ctx, other, notice.ID, upload(t, "other.pdf", []byte("%PDF")))
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

	_, err = h.svc.NoticeService.AddAttachment(ctx, author, notice.ID, upload(t, "grades.xlsx", []byte("cells")))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	stored, err := h.svc.NoticeService.GetNotice(ctx, other, notice.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Attachments, stored.Attachments)
}
