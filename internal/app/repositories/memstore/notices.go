package memstore

import (
	"context"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// NoticeRepository is the in-memory notice collection
type NoticeRepository struct{ s *Store }

func copyNotice(n *models.Notice) *models.Notice {
	c := *n
	c.ExpiresAt = cloneTime(n.ExpiresAt)
	c.Attachments = cloneStrings(n.Attachments)
	return &c
}

func (r *NoticeRepository) Create(_ context.Context, notice *models.Notice) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notices[notice.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	now := s.now()
	notice.CreatedAt, notice.UpdatedAt = now, now
	notice.Attachments = cloneStrings(notice.Attachments)
	s.notices[notice.ID] = copyNotice(notice)
	s.track(notice.ID)
	return nil
}

func (r *NoticeRepository) GetByID(_ context.Context, id string) (*models.Notice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notices[id]
	if !ok {
		return nil, apperrors.ErrNoticeNotFound
	}
	return copyNotice(n), nil
}

func (r *NoticeRepository) Update(_ context.Context, id string, changes models.NoticeChanges) (*models.Notice, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notices[id]
	if !ok {
		return nil, apperrors.ErrNoticeNotFound
	}
	changes.Apply(n)
	n.Attachments = cloneStrings(n.Attachments)
	n.UpdatedAt = s.now()
	return copyNotice(n), nil
}

func (r *NoticeRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notices[id]; !ok {
		return apperrors.ErrNoticeNotFound
	}
	delete(s.notices, id)
	return nil
}

func (r *NoticeRepository) List(_ context.Context, filter models.NoticeFilter) ([]*models.Notice, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notice
	for _, n := range s.notices {
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if filter.TargetAudience != nil && n.TargetAudience != *filter.TargetAudience {
			continue
		}
		if filter.ActiveOnly && !n.IsActive {
			continue
		}
		out = append(out, copyNotice(n))
	}
	sortByCreated(s, out, noticeID, noticeCreated, true)
	return limitSlice(out, filter.Limit), nil
}

func (r *NoticeRepository) ListCreatedBetween(_ context.Context, window models.TimeRange) ([]*models.Notice, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notice
	for _, n := range s.notices {
		if window.Contains(n.CreatedAt) {
			out = append(out, copyNotice(n))
		}
	}
	sortByCreated(s, out, noticeID, noticeCreated, false)
	return out, nil
}

func noticeID(n *models.Notice) string         { return n.ID }
func noticeCreated(n *models.Notice) time.Time { return n.CreatedAt }
