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
)

const noticeBodyRunes = 100

// NoticeService defines the interface for notice operations
type NoticeService interface {
	CreateNotice(ctx context.Context, caller auth.Caller, req *dto.CreateNoticeRequest) (*models.Notice, models.FanoutResult, error)
	UpdateNotice(ctx context.Context, caller auth.Caller, id string, req *dto.UpdateNoticeRequest) (*models.Notice, error)
	DeleteNotice(ctx context.Context, caller auth.Caller, id string) error
	ToggleActive(ctx context.Context, caller auth.Caller, id string) (*models.Notice, error)
	GetNotice(ctx context.Context, caller auth.Caller, id string) (*models.Notice, error)
	ListNotices(ctx context.Context, caller auth.Caller, query dto.ListNoticesQuery) ([]*models.Notice, error)
	AddAttachment(ctx context.Context, caller auth.Caller, id string, file *multipart.FileHeader) (*models.Notice, error)
}

// noticeServiceImpl implements NoticeService
type noticeServiceImpl struct {
	noticeRepo    repositories.NoticeRepository
	userRepo      repositories.UserRepository
	notifications NotificationService
	storage       filestorage.FileStorage
	logger        zerolog.Logger
}

// NewNoticeService creates a new NoticeService
func NewNoticeService(
	noticeRepo repositories.NoticeRepository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) NoticeService {
	return &noticeServiceImpl{
		noticeRepo:    noticeRepo,
		userRepo:      userRepo,
		notifications: notifications,
		storage:       storage,
		logger:        logger,
	}
}

// CreateNotice persists a notice and fans out one notification per matching active user.
// The notice write is never rolled back by a fan-out failure; the outcome reports it instead.
func (s *noticeServiceImpl) CreateNotice(ctx context.Context, caller auth.Caller, req *dto.CreateNoticeRequest) (*models.Notice, models.FanoutResult, error) {
	if err := auth.Require(caller, auth.ActionCreateNotice, nil); err != nil {
		return nil, models.FanoutResult{}, err
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, models.FanoutResult{}, apperrors.NewBadRequestError("title and content are required")
	}
	if !req.Type.IsValid() {
		return nil, models.FanoutResult{}, apperrors.NewBadRequestError("invalid notice type")
	}
	if !req.TargetAudience.IsValid() {
		return nil, models.FanoutResult{}, apperrors.NewBadRequestError("invalid target audience")
	}

	authorName := ""
	if author, err := s.userRepo.GetByID(ctx, caller.ID); err == nil {
		authorName = author.DisplayName
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, models.FanoutResult{}, internalError("loading author", err)
	}

	notice := &models.Notice{
		ID:             uuid.New().String(),
		Title:          title,
		Content:        content,
		Type:           req.Type,
		TargetAudience: req.TargetAudience,
		AuthorID:       caller.ID,
		AuthorName:     authorName,
		IsActive:       true,
		ExpiresAt:      req.ExpiresAt,
		Attachments:    req.Attachments,
	}
	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, models.FanoutResult{}, internalError("creating notice", err)
	}

	s.logger.Info().
		Str("noticeId", notice.ID).
		Str("authorId", caller.ID).
		Str("audience", string(notice.TargetAudience)).
		Msg("Notice created")

	result := s.fanOut(ctx, notice)
	result.PrimaryWriteOK = true
	return notice, result, nil
}

func (s *noticeServiceImpl) fanOut(ctx context.Context, notice *models.Notice) models.FanoutResult {
	recipients, err := s.userRepo.ListActiveByAudience(ctx, notice.TargetAudience)
	if err != nil {
		s.logger.Warn().Err(err).Str("noticeId", notice.ID).Msg("Failed to resolve notice audience")
		return models.FanoutResult{FanoutOK: false, FanoutErrors: []error{err}}
	}

	body := helpers.Truncate(notice.Content, noticeBodyRunes)
	notifications := make([]*models.Notification, 0, len(recipients))
	for _, u := range recipients {
		notifications = append(notifications, &models.Notification{
			UserID: u.ID,
			Type:   models.NotificationTypeNotice,
			Title:  notice.Title,
			Body:   body,
			Data: models.JSONMap{
				"noticeId":   notice.ID,
				"noticeType": string(notice.Type),
			},
		})
	}

	result := s.notifications.FanOut(ctx, notifications)
	if !result.FanoutOK {
		s.logger.Warn().
			Str("noticeId", notice.ID).
			Int("attempted", result.Attempted).
			Int("delivered", result.Delivered).
			Int("failedBatches", len(result.FanoutErrors)).
			Msg("Notice fan-out incomplete")
	}
	return result
}

// loadForChange fetches a notice and checks the caller may modify it
func (s *noticeServiceImpl) loadForChange(ctx context.Context, caller auth.Caller, id string, action auth.Action) (*models.Notice, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	notice, err := s.noticeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internalError("loading notice", err)
	}
	if err := auth.Require(caller, action, auth.OwnedBy(notice.AuthorID)); err != nil {
		return nil, err
	}
	return notice, nil
}

// UpdateNotice applies a partial update. Author and creation time are never writable.
func (s *noticeServiceImpl) UpdateNotice(ctx context.Context, caller auth.Caller, id string, req *dto.UpdateNoticeRequest) (*models.Notice, error) {
	if _, err := s.loadForChange(ctx, caller, id, auth.ActionUpdateNotice); err != nil {
		return nil, err
	}

	changes := req.ToChanges()
	if err := validateNoticeChanges(&changes); err != nil {
		return nil, err
	}

	updated, err := s.noticeRepo.Update(ctx, id, changes)
	if err != nil {
		return nil, internalError("updating notice", err)
	}
	return updated, nil
}

func validateNoticeChanges(c *models.NoticeChanges) error {
	if c.Title != nil {
		t := strings.TrimSpace(*c.Title)
		if t == "" {
			return apperrors.NewBadRequestError("title cannot be empty")
		}
		c.Title = &t
	}
	if c.Content != nil && strings.TrimSpace(*c.Content) == "" {
		return apperrors.NewBadRequestError("content cannot be empty")
	}
	if c.Type != nil && !c.Type.IsValid() {
		return apperrors.NewBadRequestError("invalid notice type")
	}
	if c.TargetAudience != nil && !c.TargetAudience.IsValid() {
		return apperrors.NewBadRequestError("invalid target audience")
	}
	return nil
}

// DeleteNotice physically removes a notice and, best-effort, its stored attachments
func (s *noticeServiceImpl) DeleteNotice(ctx context.Context, caller auth.Caller, id string) error {
	notice, err := s.loadForChange(ctx, caller, id, auth.ActionDeleteNotice)
	if err != nil {
		return err
	}

	if err := s.noticeRepo.Delete(ctx, id); err != nil {
		return internalError("deleting notice", err)
	}

	if s.storage != nil {
		for _, url := range notice.Attachments {
			if err := s.storage.Delete(ctx, url); err != nil {
				s.logger.Warn().Err(err).Str("noticeId", id).Str("url", url).Msg("Failed to remove notice attachment")
			}
		}
	}

	s.logger.Info().Str("noticeId", id).Str("deletedBy", caller.ID).Msg("Notice deleted")
	return nil
}

// ToggleActive flips isActive through the update path
func (s *noticeServiceImpl) ToggleActive(ctx context.Context, caller auth.Caller, id string) (*models.Notice, error) {
	notice, err := s.loadForChange(ctx, caller, id, auth.ActionUpdateNotice)
	if err != nil {
		return nil, err
	}

	updated, err := s.noticeRepo.Update(ctx, id, models.NoticeChanges{IsActive: ptr(!notice.IsActive)})
	if err != nil {
		return nil, internalError("toggling notice", err)
	}
	return updated, nil
}

// GetNotice returns a single notice to any authenticated caller
func (s *noticeServiceImpl) GetNotice(ctx context.Context, caller auth.Caller, id string) (*models.Notice, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	notice, err := s.noticeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internalError("loading notice", err)
	}
	return notice, nil
}

// ListNotices returns notices newest first
func (s *noticeServiceImpl) ListNotices(ctx context.Context, caller auth.Caller, query dto.ListNoticesQuery) ([]*models.Notice, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}

	filter := query.ToFilter()
	filter.Limit = helpers.ClampLimit(filter.Limit)

	notices, err := s.noticeRepo.List(ctx, filter)
	if err != nil {
		return nil, internalError("listing notices", err)
	}
	if notices == nil {
		notices = []*models.Notice{}
	}
	return notices, nil
}

// AddAttachment stores a file in the notice bucket and appends its URL
func (s *noticeServiceImpl) AddAttachment(ctx context.Context, caller auth.Caller, id string, file *multipart.FileHeader) (*models.Notice, error) {
	notice, err := s.loadForChange(ctx, caller, id, auth.ActionUpdateNotice)
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, apperrors.NewBadRequestError("file uploads are disabled")
	}

	stored, err := s.storage.Save(ctx, models.BucketNoticeAttachments, file)
	if err != nil {
		return nil, internalError("storing attachment", err)
	}

	attachments := append(append([]string{}, notice.Attachments...), stored.URL)
	updated, err := s.noticeRepo.Update(ctx, id, models.NoticeChanges{Attachments: attachments})
	if err != nil {
		if cleanupErr := s.storage.Delete(ctx, stored.URL); cleanupErr != nil {
			s.logger.Warn().Err(cleanupErr).Str("url", stored.URL).Msg("Failed to remove orphaned attachment")
		}
		return nil, internalError("attaching file", err)
	}
	return updated, nil
}
