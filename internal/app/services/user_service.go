package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/filestorage"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
)

// CascadePolicy selects which messages are removed with an account
type CascadePolicy string

const (
	// CascadeSenderOnly removes the messages the user sent
	CascadeSenderOnly CascadePolicy = "sender_only"
	// CascadeSenderAndRecipient also removes direct messages addressed to the user
	CascadeSenderAndRecipient CascadePolicy = "sender_and_recipient"
)

// IsValid reports whether p is a known policy.
func (p CascadePolicy) IsValid() bool {
	return p == CascadeSenderOnly || p == CascadeSenderAndRecipient
}

// UserService defines the interface for user profile operations
type UserService interface {
	// OnAccountCreate provisions the profile of a new identity. An existing profile is returned unchanged.
	OnAccountCreate(ctx context.Context, authUser models.AuthUser) (*models.User, bool, error)
	// OnAccountDelete removes a user and the data that references them.
	OnAccountDelete(ctx context.Context, userID string) (*dto.AccountCleanup, error)
	UpdateOwnProfile(ctx context.Context, caller auth.Caller, req *dto.UpdateProfileRequest) (*models.User, error)
	UpdateUserRole(ctx context.Context, caller auth.Caller, userID string, role models.RoleType) (*models.User, error)
	GetUser(ctx context.Context, caller auth.Caller, userID string) (*models.User, error)
	ListUsers(ctx context.Context, caller auth.Caller, query dto.ListUsersQuery) (*dto.UserListResponse, error)
	RegisterPushToken(ctx context.Context, caller auth.Caller, token string) error
	UploadProfileImage(ctx context.Context, caller auth.Caller, file *multipart.FileHeader) (*models.User, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo         repositories.UserRepository
	messageRepo      repositories.MessageRepository
	notificationRepo repositories.NotificationRepository
	groupRepo        repositories.GroupRepository
	storage          filestorage.FileStorage
	cascade          CascadePolicy
	logger           zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	repos *repositories.Repositories,
	storage filestorage.FileStorage,
	cascade CascadePolicy,
	logger zerolog.Logger,
) UserService {
	if !cascade.IsValid() {
		cascade = CascadeSenderOnly
	}
	return &userServiceImpl{
		userRepo:         repos.UserRepository,
		messageRepo:      repos.MessageRepository,
		notificationRepo: repos.NotificationRepository,
		groupRepo:        repos.GroupRepository,
		storage:          storage,
		cascade:          cascade,
		logger:           logger,
	}
}

// OnAccountCreate implements UserService
func (s *userServiceImpl) OnAccountCreate(ctx context.Context, authUser models.AuthUser) (*models.User, bool, error) {
	if strings.TrimSpace(authUser.UID) == "" {
		return nil, false, apperrors.NewBadRequestError("uid is required")
	}

	existing, err := s.userRepo.GetByID(ctx, authUser.UID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, false, internalError("loading user", err)
	}

	user := &models.User{
		ID:          authUser.UID,
		Email:       strings.TrimSpace(authUser.Email),
		DisplayName: strings.TrimSpace(authUser.DisplayName),
		PhotoURL:    authUser.PhotoURL,
		Role:        models.RoleStudent,
		Department:  authUser.Department,
		Year:        authUser.Year,
		IsActive:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			// lost a race with a concurrent delivery of the same event
			existing, getErr := s.userRepo.GetByID(ctx, authUser.UID)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, internalError("creating user", err)
	}

	s.logger.Info().Str("userId", user.ID).Str("email", user.Email).Msg("User profile created")
	return user, true, nil
}

// OnAccountDelete implements UserService
func (s *userServiceImpl) OnAccountDelete(ctx context.Context, userID string) (*dto.AccountCleanup, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewBadRequestError("uid is required")
	}

	cleanup := &dto.AccountCleanup{UserID: userID}
	var err error

	if cleanup.MessagesDeleted, err = s.messageRepo.DeleteBySender(ctx, userID); err != nil {
		return nil, internalError("deleting sent messages", err)
	}
	if s.cascade == CascadeSenderAndRecipient {
		received, err := s.messageRepo.DeleteByRecipient(ctx, userID)
		if err != nil {
			return nil, internalError("deleting received messages", err)
		}
		cleanup.MessagesDeleted += received
	}
	if cleanup.MembershipsRemoved, err = s.groupRepo.RemoveUserMemberships(ctx, userID); err != nil {
		return nil, internalError("removing group memberships", err)
	}
	// owned groups have no one left who can manage them
	if cleanup.GroupsDeactivated, err = s.groupRepo.DeactivateOwnedGroups(ctx, userID); err != nil {
		return nil, internalError("deactivating owned groups", err)
	}
	if cleanup.NotificationsDeleted, err = s.notificationRepo.DeleteByUser(ctx, userID); err != nil {
		return nil, internalError("deleting notifications", err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, internalError("deleting user", err)
	}

	s.logger.Info().
		Str("userId", userID).
		Str("cascadePolicy", string(s.cascade)).
		Int64("messagesDeleted", cleanup.MessagesDeleted).
		Int64("notificationsDeleted", cleanup.NotificationsDeleted).
		Int64("membershipsRemoved", cleanup.MembershipsRemoved).
		Int64("groupsDeactivated", cleanup.GroupsDeactivated).
		Msg("User data cleaned up")
	return cleanup, nil
}

// UpdateOwnProfile applies the self-service fields. Identity, role and creation
// time are not part of the request and cannot change here.
func (s *userServiceImpl) UpdateOwnProfile(ctx context.Context, caller auth.Caller, req *dto.UpdateProfileRequest) (*models.User, error) {
	if err := auth.Require(caller, auth.ActionUpdateOwnProfile, auth.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}

	changes := req.ToChanges()
	if changes.DisplayName != nil {
		name := strings.TrimSpace(*changes.DisplayName)
		if name == "" {
			return nil, apperrors.NewBadRequestError("displayName cannot be empty")
		}
		changes.DisplayName = &name
	}

	user, err := s.userRepo.UpdateProfile(ctx, caller.ID, changes)
	if err != nil {
		return nil, internalError("updating profile", err)
	}
	return user, nil
}

// UpdateUserRole changes a user's role. Admin only.
func (s *userServiceImpl) UpdateUserRole(ctx context.Context, caller auth.Caller, userID string, role models.RoleType) (*models.User, error) {
	if err := auth.Require(caller, auth.ActionUpdateUserRole, nil); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, apperrors.NewBadRequestError("invalid role")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, internalError("updating role", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("loading user", err)
	}

	s.logger.Info().
		Str("userId", userID).
		Str("role", string(role)).
		Str("updatedBy", caller.ID).
		Msg("User role updated")
	return user, nil
}

// GetUser returns a profile to any authenticated caller
func (s *userServiceImpl) GetUser(ctx context.Context, caller auth.Caller, userID string) (*models.User, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("loading user", err)
	}
	return user, nil
}

// ListUsers returns a page of users. Admin only.
func (s *userServiceImpl) ListUsers(ctx context.Context, caller auth.Caller, query dto.ListUsersQuery) (*dto.UserListResponse, error) {
	if err := auth.Require(caller, auth.ActionListUsers, nil); err != nil {
		return nil, err
	}

	offset, limit := helpers.CalculateOffsetLimit(query.Page, query.Size)
	filter := models.UserFilter{ActiveOnly: query.ActiveOnly, Offset: offset, Limit: limit}
	if query.Role != "" {
		role := models.RoleType(query.Role)
		if !role.IsValid() {
			return nil, apperrors.NewBadRequestError("invalid role filter")
		}
		filter.Role = &role
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, internalError("listing users", err)
	}
	if users == nil {
		users = []*models.User{}
	}

	page := query.Page
	if page < 1 {
		page = helpers.DefaultPage
	}
	return &dto.UserListResponse{
		Users:      users,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// RegisterPushToken stores the caller's device token. An empty token clears it.
func (s *userServiceImpl) RegisterPushToken(ctx context.Context, caller auth.Caller, token string) error {
	if err := auth.Require(caller, auth.ActionRegisterPushToken, auth.OwnedBy(caller.ID)); err != nil {
		return err
	}

	var stored *string
	if t := strings.TrimSpace(token); t != "" {
		stored = &t
	}
	if err := s.userRepo.UpdatePushToken(ctx, caller.ID, stored); err != nil {
		return internalError("storing push token", err)
	}
	return nil
}

// UploadProfileImage stores a new profile photo and points the profile at it
func (s *userServiceImpl) UploadProfileImage(ctx context.Context, caller auth.Caller, file *multipart.FileHeader) (*models.User, error) {
	if err := auth.Require(caller, auth.ActionUpdateOwnProfile, auth.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, apperrors.NewBadRequestError("file uploads are disabled")
	}

	current, err := s.userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, internalError("loading user", err)
	}

	stored, err := s.storage.Save(ctx, models.BucketProfileImages, file)
	if err != nil {
		return nil, internalError("storing profile image", err)
	}

	user, err := s.userRepo.UpdateProfile(ctx, caller.ID, models.ProfileChanges{PhotoURL: &stored.URL})
	if err != nil {
		if delErr := s.storage.Delete(ctx, stored.URL); delErr != nil {
			s.logger.Warn().Err(delErr).Str("url", stored.URL).Msg("Failed to remove orphaned profile image")
		}
		return nil, internalError("updating profile image", err)
	}

	if current.PhotoURL != nil && *current.PhotoURL != "" {
		if err := s.storage.Delete(ctx, *current.PhotoURL); err != nil {
			s.logger.Debug().Err(err).Str("url", *current.PhotoURL).Msg("Previous profile image not removed")
		}
	}
	return user, nil
}
