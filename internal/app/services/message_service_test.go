package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

func TestSendAndMarkMessageRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	student := h.user(t, "u2", models.RoleStudent)
	teacher := h.user(t, "u3", models.RoleTeacher)

	msg, err := h.svc.MessageService.SendMessage(ctx, student, &dto.SendMessageRequest{
		RecipientID: "u3",
		Content:     "Can we meet after class?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeText, msg.Type)
	assert.False(t, msg.IsRead)
	assert.Nil(t, msg.ReadAt)
	assert.False(t, msg.CreatedAt.IsZero())

	require.NoError(t, h.svc.MessageService.MarkMessageRead(ctx, teacher, msg.ID))
	first, err := h.svc.MessageService.GetMessage(ctx, teacher, msg.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)

	require.NoError(t, h.svc.MessageService.MarkMessageRead(ctx, teacher, msg.ID))
	second, err := h.svc.MessageService.GetMessage(ctx, teacher, msg.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)
	assert.Equal(t, *first.ReadAt, *second.ReadAt)

	t.Run("sender cannot mark read", func(t *testing.T) {
		err := h.svc.MessageService.MarkMessageRead(ctx, student, msg.ID)
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})

	t.Run("missing message", func(t *testing.T) {
		err := h.svc.MessageService.MarkMessageRead(ctx, teacher, "nope")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("outsider cannot read", func(t *testing.T) {
		outsider := h.user(t, "u9", models.RoleStudent)
		_, err := h.svc.MessageService.GetMessage(ctx, outsider, msg.ID)
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	student := h.user(t, "s1", models.RoleStudent)

	tests := []struct {
		name string
		req  dto.SendMessageRequest
		kind apperrors.Kind
	}{
		{"empty content", dto.SendMessageRequest{RecipientID: "s1", Content: "  "}, apperrors.KindInvalidArgument},
		{"unknown type", dto.SendMessageRequest{RecipientID: "s1", Content: "hi", Type: "sticker"}, apperrors.KindInvalidArgument},
		{"no recipient", dto.SendMessageRequest{Content: "hi"}, apperrors.KindInvalidArgument},
		{"unknown recipient", dto.SendMessageRequest{RecipientID: "ghost", Content: "hi"}, apperrors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := h.svc.MessageService.SendMessage(ctx, student, &req)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		_, err := h.svc.MessageService.SendMessage(ctx, anonymousCaller, &dto.SendMessageRequest{RecipientID: "s1", Content: "hi"})
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
	})
}

func TestSendMessagePushSideChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("one push for a recipient with a token", func(t *testing.T) {
		h := newHarness(t)
		sender := h.user(t, "s1", models.RoleStudent)
		h.user(t, "t1", models.RoleTeacher)
		token := "device-token"
		require.NoError(t, h.repos.UserRepository.UpdatePushToken(ctx, "t1", &token))

		content := strings.Repeat("a", 80)
		msg, err := h.svc.MessageService.SendMessage(ctx, sender, &dto.SendMessageRequest{RecipientID: "t1", Content: content})
		require.NoError(t, err)

		require.Len(t, h.pusher.payloads, 1)
		p := h.pusher.payloads[0]
		assert.Equal(t, "device-token", p.Token)
		assert.Equal(t, "New Message", p.Title)
		assert.Equal(t, strings.Repeat("a", 50)+"...", p.Body)
		assert.Equal(t, map[string]string{"type": "message", "messageId": msg.ID, "senderId": "s1"}, p.Data)

		inbox := h.inbox(t, "t1")
		require.Len(t, inbox, 1)
		assert.Equal(t, models.NotificationTypeMessage, inbox[0].Type)
		assert.Equal(t, 1, h.notifier.count(websocket.EventMessage))
	})

	t.Run("no token means no push", func(t *testing.T) {
		h := newHarness(t)
		sender := h.user(t, "s1", models.RoleStudent)
		h.user(t, "t1", models.RoleTeacher)

		_, err := h.svc.MessageService.SendMessage(ctx, sender, &dto.SendMessageRequest{RecipientID: "t1", Content: "hi"})
		require.NoError(t, err)
		assert.Empty(t, h.pusher.payloads)
	})

	t.Run("push failure does not fail the send", func(t *testing.T) {
		h := newHarness(t)
		h.pusher.err = errors.New("fcm unavailable")
		sender := h.user(t, "s1", models.RoleStudent)
		h.user(t, "t1", models.RoleTeacher)
		token := "device-token"
		require.NoError(t, h.repos.UserRepository.UpdatePushToken(ctx, "t1", &token))

		msg, err := h.svc.MessageService.SendMessage(ctx, sender, &dto.SendMessageRequest{RecipientID: "t1", Content: "hi"})
		require.NoError(t, err)
		assert.Len(t, h.pusher.payloads, 1)

		stored, err := h.repos.MessageRepository.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "hi", stored.Content)
	})

	t.Run("notification failure does not fail the send", func(t *testing.T) {
		h := newHarness(t, withFailingBatches(1))
		sender := h.user(t, "s1", models.RoleStudent)
		h.user(t, "t1", models.RoleTeacher)

		_, err := h.svc.MessageService.SendMessage(ctx, sender, &dto.SendMessageRequest{RecipientID: "t1", Content: "hi"})
		require.NoError(t, err)
		assert.Empty(t, h.inbox(t, "t1"))
	})
}

func TestConversationOrdering(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.user(t, "a", models.RoleStudent)
	b := h.user(t, "b", models.RoleStudent)

	send := func(from auth.Caller, to, content string) {
		_, err := h.svc.MessageService.SendMessage(ctx, from, &dto.SendMessageRequest{RecipientID: to, Content: content})
		require.NoError(t, err)
	}
	send(a, "b", "one")
	send(b, "a", "two")
	send(a, "b", "three")

	msgs, err := h.svc.MessageService.ListConversation(ctx, b, "a", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)

	latest, err := h.svc.MessageService.ListConversation(ctx, a, "b", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "two", latest[0].Content)

	_, err = h.svc.MessageService.ListConversation(ctx, a, "nobody", 0)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGroupMessaging(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	teacher := h.user(t, "t1", models.RoleTeacher)
	member := h.user(t, "s1", models.RoleStudent)
	outsider := h.user(t, "s2", models.RoleStudent)

	group, err := h.svc.GroupService.CreateGroup(ctx, teacher, &dto.CreateGroupRequest{Name: "CS101", GroupType: models.GroupTypeClass})
	require.NoError(t, err)
	_, err = h.svc.GroupService.AddMember(ctx, teacher, group.ID, &dto.AddMemberRequest{UserID: "s1"})
	require.NoError(t, err)

	msg, err := h.svc.MessageService.SendMessage(ctx, teacher, &dto.SendMessageRequest{GroupID: &group.ID, Content: "Welcome"})
	require.NoError(t, err)
	assert.True(t, msg.IsGroupMessage)
	assert.Equal(t, group.ID, msg.RecipientID)
	assert.Empty(t, h.pusher.payloads)

	m, err := h.repos.GroupRepository.GetMember(ctx, group.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.UnreadCount)
	owner, err := h.repos.GroupRepository.GetMember(ctx, group.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, owner.UnreadCount)

	require.NoError(t, h.svc.GroupService.MarkGroupRead(ctx, member, group.ID))
	m, err = h.repos.GroupRepository.GetMember(ctx, group.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, m.UnreadCount)

	msgs, err := h.svc.MessageService.ListGroupMessages(ctx, member, group.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, err = h.svc.MessageService.GetMessage(ctx, member, msg.ID)
	assert.NoError(t, err)

	t.Run("outsider cannot post or read", func(t *testing.T) {
		_, err := h.svc.MessageService.SendMessage(ctx, outsider, &dto.SendMessageRequest{GroupID: &group.ID, Content: "hi"})
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

		_, err = h.svc.MessageService.ListGroupMessages(ctx, outsider, group.ID, 10)
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))

		_, err = h.svc.MessageService.GetMessage(ctx, outsider, msg.ID)
		assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	})

	t.Run("unknown group", func(t *testing.T) {
		missing := "no-such-group"
		_, err := h.svc.MessageService.SendMessage(ctx, member, &dto.SendMessageRequest{GroupID: &missing, Content: "hi"})
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestUploadMessageAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("stored in message bucket", func(t *testing.T) {
		h := newHarness(t, withStorage(t))
		alice := h.user(t, "alice", models.RoleStudent)

		stored, err := h.svc.MessageService.UploadAttachment(ctx, alice, upload(t, "grades.xlsx", []byte("cells")))
		require.NoError(t, err)
		assert.Equal(t, models.BucketMessageAttachments, stored.Bucket)
		assert.True(t, strings.HasPrefix(stored.URL, "https://files.college.test/uploads/message-attachments/"), stored.URL)
		assert.Equal(t, int64(5), stored.Size)

		bob := h.user(t, "bob", models.RoleStudent)
		msg, err := h.svc.MessageService.SendMessage(ctx, alice, &dto.SendMessageRequest{
			RecipientID:   bob.ID,
			Content:       "see attached",
			Type:          models.MessageTypeDocument,
			AttachmentURL: &stored.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, msg.AttachmentURL)
		assert.Equal(t, stored.URL, *msg.AttachmentURL)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		h := newHarness(t, withStorage(t))
		alice := h.user(t, "alice", models.RoleStudent)

		_, err := h.svc.MessageService.UploadAttachment(ctx, alice, upload(t, "run.exe", []byte("MZ")))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
	})

	t.Run("uploads disabled", func(t *testing.T) {
		h := newHarness(t)
		alice := h.user(t, "alice", models.RoleStudent)

		_, err := h.svc.MessageService.UploadAttachment(ctx, alice, upload(t, "notes.pdf", []byte("%PDF")))
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	})

	t.Run("anonymous", func(t *testing.T) {
		h := newHarness(t, withStorage(t))
		_, err := h.svc.MessageService.UploadAttachment(ctx, anonymousCaller, upload(t, "notes.pdf", []byte("%PDF")))
		assert.Equal(t, apperrors.KindUnauthenticated, apperrors.KindOf(err))
	})
}
