package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// UserRepository is the in-memory user collection
type UserRepository struct{ s *Store }

func copyUser(u *models.User) *models.User {
	c := *u
	c.PhotoURL = cloneString(u.PhotoURL)
	c.Department = cloneString(u.Department)
	c.Year = cloneString(u.Year)
	c.PhoneNumber = cloneString(u.PhoneNumber)
	c.PushToken = cloneString(u.PushToken)
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}

	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = copyUser(user)
	s.track(user.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) List(_ context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.User
	for _, u := range s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ActiveOnly && !u.IsActive {
			continue
		}
		matched = append(matched, copyUser(u))
	}
	sortByCreated(s, matched, func(u *models.User) string { return u.ID }, func(u *models.User) time.Time { return u.CreatedAt }, true)

	total := len(matched)
	if int(filter.Offset) >= total {
		return []*models.User{}, total, nil
	}
	return limitSlice(matched[filter.Offset:], filter.Limit), total, nil
}

func (r *UserRepository) ListActiveByAudience(_ context.Context, audience models.Audience) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.User
	for _, u := range r.s.users {
		if u.IsActive && audience.Matches(u.Role) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, changes models.ProfileChanges) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if !changes.IsEmpty() {
		changes.Apply(u)
		u.UpdatedAt = s.now()
	}
	return copyUser(u), nil
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role models.RoleType) error {
	return r.mutate(id, func(u *models.User) { u.Role = role })
}

func (r *UserRepository) UpdatePushToken(_ context.Context, id string, token *string) error {
	return r.mutate(id, func(u *models.User) { u.PushToken = cloneString(token) })
}

func (r *UserRepository) mutate(id string, fn func(*models.User)) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = s.now()
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
