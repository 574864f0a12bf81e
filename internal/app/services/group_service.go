package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// GroupService defines the interface for group operations
type GroupService interface {
	CreateGroup(ctx context.Context, caller auth.Caller, req *dto.CreateGroupRequest) (*models.Group, error)
	GetGroup(ctx context.Context, caller auth.Caller, groupID string) (*models.Group, error)
	AddMember(ctx context.Context, caller auth.Caller, groupID string, req *dto.AddMemberRequest) (*models.Group, error)
	// RemoveMember is allowed to group managers, and to a member leaving on their own.
	RemoveMember(ctx context.Context, caller auth.Caller, groupID, userID string) (*models.Group, error)
	ListMembers(ctx context.Context, caller auth.Caller, groupID string) ([]*models.GroupMember, error)
	MarkGroupRead(ctx context.Context, caller auth.Caller, groupID string) error
}

// groupServiceImpl implements GroupService
type groupServiceImpl struct {
	groupRepo repositories.GroupRepository
	userRepo  repositories.UserRepository
	logger    zerolog.Logger
}

// NewGroupService creates a new GroupService
func NewGroupService(groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, logger zerolog.Logger) GroupService {
	return &groupServiceImpl{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		logger:    logger,
	}
}

// CreateGroup creates a group with the caller as its first active admin member
func (s *groupServiceImpl) CreateGroup(ctx context.Context, caller auth.Caller, req *dto.CreateGroupRequest) (*models.Group, error) {
	if err := auth.Require(caller, auth.ActionCreateGroup, nil); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewBadRequestError("name is required")
	}
	if !req.GroupType.IsValid() {
		return nil, apperrors.NewBadRequestError("invalid group type")
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: req.Description,
		OwnerID:     caller.ID,
		GroupType:   req.GroupType,
		IsActive:    true,
	}
	owner := &models.GroupMember{
		GroupID: group.ID,
		UserID:  caller.ID,
		Role:    models.MemberRoleAdmin,
		Status:  models.MemberStatusActive,
	}
	if err := s.groupRepo.Create(ctx, group, owner); err != nil {
		return nil, internalError("creating group", err)
	}

	s.logger.Info().Str("groupId", group.ID).Str("ownerId", caller.ID).Msg("Group created")
	return group, nil
}

// GetGroup returns a group to any authenticated caller
func (s *groupServiceImpl) GetGroup(ctx context.Context, caller auth.Caller, groupID string) (*models.Group, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internalError("loading group", err)
	}
	return group, nil
}

// requireManager admits the group owner, a platform admin or an active group admin member
func (s *groupServiceImpl) requireManager(ctx context.Context, caller auth.Caller, group *models.Group) error {
	decision := auth.Authorize(caller, auth.ActionManageGroupMembers, auth.OwnedBy(group.OwnerID))
	if decision.Allowed || decision.Reason == auth.ReasonUnauthenticated {
		return decision.Err()
	}

	member, err := s.groupRepo.GetMember(ctx, group.ID, caller.ID)
	if err != nil && !errors.Is(err, apperrors.ErrMemberNotFound) {
		return internalError("loading group member", err)
	}
	if err == nil && member.Role == models.MemberRoleAdmin && member.Status == models.MemberStatusActive {
		return nil
	}
	return decision.Err()
}

// AddMember adds or reactivates a member. memberCount is recomputed by the store.
func (s *groupServiceImpl) AddMember(ctx context.Context, caller auth.Caller, groupID string, req *dto.AddMemberRequest) (*models.Group, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internalError("loading group", err)
	}
	if err := s.requireManager(ctx, caller, group); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, internalError("loading user", err)
	}
	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}

	updated, err := s.groupRepo.AddMember(ctx, &models.GroupMember{
		GroupID: groupID,
		UserID:  req.UserID,
		Role:    role,
		Status:  models.MemberStatusActive,
	})
	if err != nil {
		return nil, internalError("adding group member", err)
	}

	s.logger.Info().
		Str("groupId", groupID).
		Str("userId", req.UserID).
		Int("memberCount", updated.MemberCount).
		Msg("Group member added")
	return updated, nil
}

// RemoveMember implements GroupService
func (s *groupServiceImpl) RemoveMember(ctx context.Context, caller auth.Caller, groupID, userID string) (*models.Group, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internalError("loading group", err)
	}
	if userID != caller.ID {
		if err := s.requireManager(ctx, caller, group); err != nil {
			return nil, err
		}
	}
	if userID == group.OwnerID {
		return nil, apperrors.NewBadRequestError("the group owner cannot be removed")
	}

	updated, err := s.groupRepo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return nil, internalError("removing group member", err)
	}

	s.logger.Info().
		Str("groupId", groupID).
		Str("userId", userID).
		Int("memberCount", updated.MemberCount).
		Msg("Group member removed")
	return updated, nil
}

// ListMembers returns the members of a group the caller belongs to
func (s *groupServiceImpl) ListMembers(ctx context.Context, caller auth.Caller, groupID string) ([]*models.GroupMember, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, internalError("loading group", err)
	}
	if !caller.IsAdmin() && caller.ID != group.OwnerID {
		if _, err := s.groupRepo.GetMember(ctx, groupID, caller.ID); err != nil {
			if errors.Is(err, apperrors.ErrMemberNotFound) {
				return nil, apperrors.NewForbiddenError("Permission denied: not a member of this group")
			}
			return nil, internalError("loading group member", err)
		}
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internalError("listing group members", err)
	}
	if members == nil {
		members = []*models.GroupMember{}
	}
	return members, nil
}

// MarkGroupRead resets the caller's unread counter for the group
func (s *groupServiceImpl) MarkGroupRead(ctx context.Context, caller auth.Caller, groupID string) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}
	if _, err := s.groupRepo.GetMember(ctx, groupID, caller.ID); err != nil {
		return internalError("loading group member", err)
	}
	if err := s.groupRepo.ResetUnread(ctx, groupID, caller.ID); err != nil {
		return internalError("resetting unread counter", err)
	}
	return nil
}
