package memstore

import (
	"context"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// MessageRepository is the in-memory message collection
type MessageRepository struct{ s *Store }

func copyMessage(m *models.Message) *models.Message {
	c := *m
	c.AttachmentURL = cloneString(m.AttachmentURL)
	c.ReadAt = cloneTime(m.ReadAt)
	c.GroupID = cloneString(m.GroupID)
	c.ReplyToMessageID = cloneString(m.ReplyToMessageID)
	c.MentionIDs = cloneStrings(m.MentionIDs)
	return &c
}

func messageID(m *models.Message) string         { return m.ID }
func messageCreated(m *models.Message) time.Time { return m.CreatedAt }

func (r *MessageRepository) Create(_ context.Context, msg *models.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	msg.CreatedAt = s.now()
	msg.MentionIDs = cloneStrings(msg.MentionIDs)
	s.messages[msg.ID] = copyMessage(msg)
	s.track(msg.ID)
	return nil
}

func (r *MessageRepository) GetByID(_ context.Context, id string) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, apperrors.ErrMessageNotFound
	}
	return copyMessage(m), nil
}

func (r *MessageRepository) MarkRead(_ context.Context, id string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[id]
	if !ok {
		return false, apperrors.ErrMessageNotFound
	}
	if m.IsRead {
		return false, nil
	}
	now := s.now()
	m.IsRead = true
	m.ReadAt = &now
	return true, nil
}

func (r *MessageRepository) ListConversation(_ context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	return r.latest(limit, func(m *models.Message) bool {
		if m.IsGroupMessage {
			return false
		}
		return (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA)
	}), nil
}

func (r *MessageRepository) ListByGroup(_ context.Context, groupID string, limit int) ([]*models.Message, error) {
	return r.latest(limit, func(m *models.Message) bool {
		return m.GroupID != nil && *m.GroupID == groupID
	}), nil
}

// latest keeps the newest limit matches and returns them oldest first
func (r *MessageRepository) latest(limit int, match func(*models.Message) bool) []*models.Message {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Message
	for _, m := range s.messages {
		if match(m) {
			out = append(out, copyMessage(m))
		}
	}
	sortByCreated(s, out, messageID, messageCreated, false)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (r *MessageRepository) ListCreatedBetween(_ context.Context, window models.TimeRange) ([]*models.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Message
	for _, m := range s.messages {
		if window.Contains(m.CreatedAt) {
			out = append(out, copyMessage(m))
		}
	}
	sortByCreated(s, out, messageID, messageCreated, false)
	return out, nil
}

func (r *MessageRepository) DeleteBySender(_ context.Context, senderID string) (int64, error) {
	return r.deleteWhere(func(m *models.Message) bool { return m.SenderID == senderID }), nil
}

func (r *MessageRepository) DeleteByRecipient(_ context.Context, recipientID string) (int64, error) {
	return r.deleteWhere(func(m *models.Message) bool {
		return !m.IsGroupMessage && m.RecipientID == recipientID
	}), nil
}

func (r *MessageRepository) deleteWhere(match func(*models.Message) bool) int64 {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, m := range s.messages {
		if match(m) {
			delete(s.messages, id)
			n++
		}
	}
	return n
}
