package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
)

// NotificationService defines the interface for notification operations
type NotificationService interface {
	ListNotifications(ctx context.Context, caller auth.Caller, query dto.ListNotificationsQuery) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, caller auth.Caller, id string) error
	// FanOut writes notifications in store-sized batches. A failed batch is
	// recorded in the result and the remaining batches are still attempted.
	FanOut(ctx context.Context, notifications []*models.Notification) models.FanoutResult
}

// notificationServiceImpl implements NotificationService
type notificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	notifier         RealtimeNotifier
	batchSize        int
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	notifier RealtimeNotifier,
	batchSize int,
	logger zerolog.Logger,
) NotificationService {
	if batchSize <= 0 || batchSize > repositories.MaxBatchSize {
		batchSize = repositories.MaxBatchSize
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		notifier:         notifier,
		batchSize:        batchSize,
		logger:           logger,
	}
}

// FanOut implements NotificationService
func (s *notificationServiceImpl) FanOut(ctx context.Context, notifications []*models.Notification) models.FanoutResult {
	result := models.FanoutResult{FanoutOK: true}

	for start := 0; start < len(notifications); start += s.batchSize {
		end := start + s.batchSize
		if end > len(notifications) {
			end = len(notifications)
		}
		batch := notifications[start:end]
		for _, n := range batch {
			if n.ID == "" {
				n.ID = uuid.New().String()
			}
		}

		err := s.notificationRepo.CreateBatch(ctx, batch)
		result.RecordBatch(len(batch), err)
		if err != nil {
			s.logger.Warn().Err(err).
				Int("batchStart", start).
				Int("batchSize", len(batch)).
				Msg("Notification batch failed, continuing with next batch")
			continue
		}

		for _, n := range batch {
			s.notifier.NotifyUser(n.UserID, websocket.EventNotification, n)
		}
	}

	s.logger.Debug().
		Int("attempted", result.Attempted).
		Int("delivered", result.Delivered).
		Bool("fanoutOk", result.FanoutOK).
		Msg("Fan-out finished")
	return result
}

// ListNotifications returns the caller's inbox, newest first
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, caller auth.Caller, query dto.ListNotificationsQuery) ([]*models.Notification, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, caller.ID, query.UnreadOnly, helpers.ClampLimit(query.Limit))
	if err != nil {
		return nil, internalError("listing notifications", err)
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the caller's notifications as read. Repeating it is a no-op.
func (s *notificationServiceImpl) MarkNotificationRead(ctx context.Context, caller auth.Caller, id string) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}

	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return internalError("loading notification", err)
	}
	if err := auth.Require(caller, auth.ActionMarkNotificationRead, auth.OwnedBy(notification.UserID)); err != nil {
		return err
	}
	if notification.IsRead {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		return internalError("marking notification read", err)
	}
	return nil
}
