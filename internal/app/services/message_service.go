package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/filestorage"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
	"github.com/yigit/campusmesh/internal/pkg/push"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

const (
	pushTitleNewMessage = "New Message"
	messagePreviewRunes = 50
)

// MessageService defines the interface for messaging operations
type MessageService interface {
	SendMessage(ctx context.Context, caller auth.Caller, req *dto.SendMessageRequest) (*models.Message, error)
	MarkMessageRead(ctx context.Context, caller auth.Caller, id string) error
	GetMessage(ctx context.Context, caller auth.Caller, id string) (*models.Message, error)
	ListConversation(ctx context.Context, caller auth.Caller, otherUserID string, limit int) ([]*models.Message, error)
	ListGroupMessages(ctx context.Context, caller auth.Caller, groupID string, limit int) ([]*models.Message, error)
	// UploadAttachment stores a file whose URL can then be sent as attachmentUrl
	UploadAttachment(ctx context.Context, caller auth.Caller, file *multipart.FileHeader) (*models.StoredFile, error)
}

// messageServiceImpl implements MessageService
type messageServiceImpl struct {
	messageRepo   repositories.MessageRepository
	userRepo      repositories.UserRepository
	groupRepo     repositories.GroupRepository
	notifications NotificationService
	storage       filestorage.FileStorage
	pusher        push.Sender
	notifier      RealtimeNotifier
	logger        zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	notifications NotificationService,
	storage filestorage.FileStorage,
	pusher push.Sender,
	notifier RealtimeNotifier,
	logger zerolog.Logger,
) MessageService {
	if pusher == nil {
		pusher = push.NoopSender{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &messageServiceImpl{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		groupRepo:     groupRepo,
		notifications: notifications,
		storage:       storage,
		pusher:        pusher,
		notifier:      notifier,
		logger:        logger,
	}
}

// SendMessage persists a direct or group message. Side channels (push, inbox
// notification, realtime event) run after the write and never fail the call.
func (s *messageServiceImpl) SendMessage(ctx context.Context, caller auth.Caller, req *dto.SendMessageRequest) (*models.Message, error) {
	if err := auth.Require(caller, auth.ActionSendMessage, auth.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.NewBadRequestError("content is required")
	}
	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.IsValid() {
		return nil, apperrors.NewBadRequestError("invalid message type")
	}

	msg := &models.Message{
		ID:               uuid.New().String(),
		SenderID:         caller.ID,
		Content:          content,
		Type:             msgType,
		AttachmentURL:    req.AttachmentURL,
		ReplyToMessageID: req.ReplyToMessageID,
		MentionIDs:       req.MentionIDs,
	}

	if req.GroupID != nil && *req.GroupID != "" {
		return s.sendGroupMessage(ctx, caller, *req.GroupID, msg)
	}
	return s.sendDirectMessage(ctx, caller, req.RecipientID, msg)
}

func (s *messageServiceImpl) sendDirectMessage(ctx context.Context, caller auth.Caller, recipientID string, msg *models.Message) (*models.Message, error) {
	if recipientID == "" {
		return nil, apperrors.NewBadRequestError("recipientId or groupId is required")
	}
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, internalError("loading recipient", err)
	}

	msg.RecipientID = recipient.ID
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, internalError("creating message", err)
	}

	s.logger.Info().
		Str("messageId", msg.ID).
		Str("senderId", msg.SenderID).
		Str("recipientId", msg.RecipientID).
		Msg("Message sent")

	s.pushToRecipient(ctx, recipient, msg)

	preview := helpers.Truncate(msg.Content, messagePreviewRunes)
	s.notifications.FanOut(ctx, []*models.Notification{{
		UserID: recipient.ID,
		Type:   models.NotificationTypeMessage,
		Title:  pushTitleNewMessage,
		Body:   preview,
		Data: models.JSONMap{
			"messageId": msg.ID,
			"senderId":  msg.SenderID,
		},
	}})
	s.notifier.NotifyUser(recipient.ID, websocket.EventMessage, msg)

	return msg, nil
}

// pushToRecipient makes exactly one push attempt. A missing token is a silent no-op.
func (s *messageServiceImpl) pushToRecipient(ctx context.Context, recipient *models.User, msg *models.Message) {
	if recipient.PushToken == nil || *recipient.PushToken == "" {
		return
	}

	err := s.pusher.Send(ctx, push.Payload{
		Token: *recipient.PushToken,
		Title: pushTitleNewMessage,
		Body:  helpers.Truncate(msg.Content, messagePreviewRunes),
		Data: map[string]string{
			"type":      "message",
			"messageId": msg.ID,
			"senderId":  msg.SenderID,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("messageId", msg.ID).
			Str("recipientId", recipient.ID).
			Msg("Push notification failed")
	}
}

func (s *messageServiceImpl) sendGroupMessage(ctx context.Context, caller auth.Caller, groupID string, msg *models.Message) (*models.Message, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internalError("loading group", err)
	}
	if !group.IsActive {
		return nil, apperrors.NewInvalidStateError("group is no longer active")
	}
	if err := s.requireActiveMember(ctx, groupID, caller.ID); err != nil {
		return nil, err
	}

	msg.RecipientID = groupID
	msg.GroupID = &groupID
	msg.IsGroupMessage = true
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, internalError("creating group message", err)
	}

	s.logger.Info().
		Str("messageId", msg.ID).
		Str("senderId", msg.SenderID).
		Str("groupId", groupID).
		Msg("Group message sent")

	if err := s.groupRepo.IncrementUnread(ctx, groupID, caller.ID); err != nil {
		s.logger.Warn().Err(err).Str("groupId", groupID).Msg("Failed to bump unread counters")
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		s.logger.Warn().Err(err).Str("groupId", groupID).Msg("Failed to list members for realtime delivery")
		return msg, nil
	}
	for _, m := range members {
		if m.UserID != caller.ID && m.Status == models.MemberStatusActive {
			s.notifier.NotifyUser(m.UserID, websocket.EventMessage, msg)
		}
	}
	return msg, nil
}

func (s *messageServiceImpl) requireActiveMember(ctx context.Context, groupID, userID string) error {
	member, err := s.groupRepo.GetMember(ctx, groupID, userID)
	if err != nil && !errors.Is(err, apperrors.ErrMemberNotFound) {
		return internalError("loading group member", err)
	}
	if err != nil || member.Status != models.MemberStatusActive {
		return apperrors.NewForbiddenError("Permission denied: not an active member of this group")
	}
	return nil
}

// MarkMessageRead flags a direct message as read by its recipient. Repeating it is a no-op success.
func (s *messageServiceImpl) MarkMessageRead(ctx context.Context, caller auth.Caller, id string) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}

	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return internalError("loading message", err)
	}
	if err := auth.Require(caller, auth.ActionMarkMessageRead, auth.OwnedBy(msg.RecipientID)); err != nil {
		return err
	}

	changed, err := s.messageRepo.MarkRead(ctx, id)
	if err != nil {
		return internalError("marking message read", err)
	}
	if changed {
		s.logger.Debug().Str("messageId", id).Msg("Message marked read")
	}
	return nil
}

// GetMessage returns a message to its sender, its recipient or an active member of its group
func (s *messageServiceImpl) GetMessage(ctx context.Context, caller auth.Caller, id string) (*models.Message, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internalError("loading message", err)
	}
	if msg.SenderID == caller.ID || (!msg.IsGroupMessage && msg.RecipientID == caller.ID) {
		return msg, nil
	}
	if msg.IsGroupMessage && msg.GroupID != nil {
		if err := s.requireActiveMember(ctx, *msg.GroupID, caller.ID); err != nil {
			return nil, err
		}
		return msg, nil
	}
	return nil, auth.Decision{Reason: auth.ReasonNotOwner}.Err()
}

// ListConversation returns the latest direct messages between the caller and another user, oldest first
func (s *messageServiceImpl) ListConversation(ctx context.Context, caller auth.Caller, otherUserID string, limit int) ([]*models.Message, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	if otherUserID == "" {
		return nil, apperrors.NewBadRequestError("conversation partner is required")
	}
	if _, err := s.userRepo.GetByID(ctx, otherUserID); err != nil {
		return nil, internalError("loading conversation partner", err)
	}

	msgs, err := s.messageRepo.ListConversation(ctx, caller.ID, otherUserID, helpers.ClampLimit(limit))
	if err != nil {
		return nil, internalError("listing conversation", err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

// ListGroupMessages returns the latest messages of a group, oldest first
func (s *messageServiceImpl) ListGroupMessages(ctx context.Context, caller auth.Caller, groupID string, limit int) ([]*models.Message, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, internalError("loading group", err)
	}
	if err := s.requireActiveMember(ctx, groupID, caller.ID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.ListByGroup(ctx, groupID, helpers.ClampLimit(limit))
	if err != nil {
		return nil, internalError("listing group messages", err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

func (s *messageServiceImpl) UploadAttachment(ctx context.Context, caller auth.Caller, file *multipart.FileHeader) (*models.StoredFile, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, apperrors.NewBadRequestError("file uploads are disabled")
	}

	stored, err := s.storage.Save(ctx, models.BucketMessageAttachments, file)
	if err != nil {
		return nil, internalError("storing message attachment", err)
	}
	s.logger.Debug().Str("userId", caller.ID).Str("url", stored.URL).Msg("Message attachment stored")
	return stored, nil
}
