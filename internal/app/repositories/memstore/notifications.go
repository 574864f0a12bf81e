package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// NotificationRepository is the in-memory notification collection
type NotificationRepository struct{ s *Store }

func copyNotification(n *models.Notification) *models.Notification {
	c := *n
	c.Data = cloneMap(n.Data)
	return &c
}

func notificationID(n *models.Notification) string         { return n.ID }
func notificationCreated(n *models.Notification) time.Time { return n.CreatedAt }

// CreateBatch validates the whole batch before writing any of it
func (r *NotificationRepository) CreateBatch(_ context.Context, notifications []*models.Notification) error {
	if len(notifications) > repositories.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", repositories.ErrBatchTooLarge, len(notifications), repositories.MaxBatchSize)
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(notifications))
	for _, n := range notifications {
		if _, ok := s.notifications[n.ID]; ok || seen[n.ID] {
			return fmt.Errorf("notification %s: %w", n.ID, apperrors.ErrResourceAlreadyExists)
		}
		seen[n.ID] = true
	}

	now := s.now()
	for _, n := range notifications {
		n.CreatedAt = now
		n.IsRead = false
		s.notifications[n.ID] = copyNotification(n)
		s.track(n.ID)
	}
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, apperrors.ErrNotificationNotFound
	}
	return copyNotification(n), nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, copyNotification(n))
	}
	sortByCreated(s, out, notificationID, notificationCreated, true)
	return limitSlice(out, limit), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return apperrors.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (r *NotificationRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, notification := range s.notifications {
		if notification.UserID == userID {
			delete(s.notifications, id)
			n++
		}
	}
	return n, nil
}
