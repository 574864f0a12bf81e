package memstore

import (
	"context"
	"sort"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// GroupRepository is the in-memory group and membership collection
type GroupRepository struct{ s *Store }

func copyGroup(g *models.Group) *models.Group {
	c := *g
	c.Description = cloneString(g.Description)
	return &c
}

func copyMember(m *models.GroupMember) *models.GroupMember {
	c := *m
	return &c
}

// recount must be called with the lock held
func (s *Store) recount(groupID string) *models.Group {
	g := s.groups[groupID]
	if g == nil {
		return nil
	}
	count := 0
	for _, m := range s.members[groupID] {
		if m.Status == models.MemberStatusActive {
			count++
		}
	}
	g.MemberCount = count
	g.UpdatedAt = s.now()
	return g
}

func (r *GroupRepository) Create(_ context.Context, group *models.Group, owner *models.GroupMember) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; ok {
		return apperrors.ErrResourceAlreadyExists
	}
	now := s.now()
	group.CreatedAt, group.UpdatedAt = now, now
	s.groups[group.ID] = copyGroup(group)
	s.track(group.ID)

	owner.JoinedAt = now
	owner.UnreadCount = 0
	s.members[group.ID] = map[string]*models.GroupMember{owner.UserID: copyMember(owner)}

	*group = *copyGroup(s.recount(group.ID))
	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	return copyGroup(g), nil
}

func (r *GroupRepository) GetMember(_ context.Context, groupID, userID string) (*models.GroupMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[groupID][userID]
	if !ok {
		return nil, apperrors.ErrMemberNotFound
	}
	return copyMember(m), nil
}

func (r *GroupRepository) ListMembers(_ context.Context, groupID string) ([]*models.GroupMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.GroupMember, 0, len(r.s.members[groupID]))
	for _, m := range r.s.members[groupID] {
		out = append(out, copyMember(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// AddMember inserts or reactivates a membership, keeping joinedAt and unreadCount of an existing row
func (r *GroupRepository) AddMember(_ context.Context, member *models.GroupMember) (*models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[member.GroupID]; !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	if existing, ok := s.members[member.GroupID][member.UserID]; ok {
		existing.Role = member.Role
		existing.Status = member.Status
		*member = *copyMember(existing)
	} else {
		member.JoinedAt = s.now()
		member.UnreadCount = 0
		s.members[member.GroupID][member.UserID] = copyMember(member)
	}
	return copyGroup(s.recount(member.GroupID)), nil
}

func (r *GroupRepository) RemoveMember(_ context.Context, groupID, userID string) (*models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, apperrors.ErrGroupNotFound
	}
	if _, ok := s.members[groupID][userID]; !ok {
		return nil, apperrors.ErrMemberNotFound
	}
	delete(s.members[groupID], userID)
	return copyGroup(s.recount(groupID)), nil
}

func (r *GroupRepository) RemoveUserMemberships(_ context.Context, userID string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for groupID, members := range s.members {
		if _, ok := members[userID]; ok {
			delete(members, userID)
			s.recount(groupID)
			removed++
		}
	}
	return removed, nil
}

func (r *GroupRepository) DeactivateOwnedGroups(_ context.Context, ownerID string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, g := range s.groups {
		if g.OwnerID == ownerID && g.IsActive {
			g.IsActive = false
			g.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

func (r *GroupRepository) IncrementUnread(_ context.Context, groupID, exceptUserID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, m := range s.members[groupID] {
		if userID != exceptUserID && m.Status == models.MemberStatusActive {
			m.UnreadCount++
		}
	}
	return nil
}

func (r *GroupRepository) ResetUnread(_ context.Context, groupID, userID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[groupID][userID]
	if !ok {
		return apperrors.ErrMemberNotFound
	}
	m.UnreadCount = 0
	return nil
}
