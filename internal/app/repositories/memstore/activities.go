package memstore

import (
	"context"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// ActivityRepository is the in-memory user_activity collection
type ActivityRepository struct{ s *Store }

func (r *ActivityRepository) Create(_ context.Context, activity *models.UserActivity) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[activity.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	activity.CreatedAt = s.now()
	c := *activity
	c.Metadata = cloneMap(activity.Metadata)
	s.activities[activity.ID] = &c
	s.track(activity.ID)
	return nil
}

func (r *ActivityRepository) ListCreatedBetween(_ context.Context, window models.TimeRange) ([]*models.UserActivity, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.UserActivity
	for _, a := range s.activities {
		if window.Contains(a.CreatedAt) {
			c := *a
			c.Metadata = cloneMap(a.Metadata)
			out = append(out, &c)
		}
	}
	sortByCreated(s, out,
		func(a *models.UserActivity) string { return a.ID },
		func(a *models.UserActivity) time.Time { return a.CreatedAt }, false)
	return out, nil
}
