package services

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/filestorage"
	"github.com/yigit/campusmesh/internal/pkg/push"
)

// RealtimeNotifier pushes events to a user's live connections
type RealtimeNotifier interface {
	NotifyUser(userID, eventType string, data interface{})
}

// NopNotifier drops every event
type NopNotifier struct{}

// NotifyUser implements RealtimeNotifier
func (NopNotifier) NotifyUser(string, string, interface{}) {}

// Config carries the service-level settings
type Config struct {
	FanoutBatchSize int
	CascadePolicy   CascadePolicy
}

// Deps are the collaborators shared by the services
type Deps struct {
	Repos    *repositories.Repositories
	Storage  filestorage.FileStorage
	Push     push.Sender
	Notifier RealtimeNotifier
	Logger   zerolog.Logger
}

// Services holds every application service
type Services struct {
	NotificationService NotificationService
	NoticeService       NoticeService
	MessageService      MessageService
	ApprovalService     ApprovalService
	AnalyticsService    AnalyticsService
	UserService         UserService
	GroupService        GroupService
}

// NewServices wires the services together
func NewServices(cfg Config, deps Deps) (*Services, error) {
	if cfg.FanoutBatchSize <= 0 {
		cfg.FanoutBatchSize = repositories.MaxBatchSize
	}
	if cfg.FanoutBatchSize > repositories.MaxBatchSize {
		return nil, fmt.Errorf("fan-out batch size %d exceeds store limit %d", cfg.FanoutBatchSize, repositories.MaxBatchSize)
	}
	if cfg.CascadePolicy == "" {
		cfg.CascadePolicy = CascadeSenderOnly
	}
	if !cfg.CascadePolicy.IsValid() {
		return nil, fmt.Errorf("unknown cascade policy %q", cfg.CascadePolicy)
	}
	if deps.Push == nil {
		deps.Push = push.NoopSender{}
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}

	repos := deps.Repos
	logger := deps.Logger

	notifications := NewNotificationService(repos.NotificationRepository, deps.Notifier, cfg.FanoutBatchSize,
		logger.With().Str("service", "notification").Logger())

	return &Services{
		NotificationService: notifications,
		NoticeService: NewNoticeService(repos.NoticeRepository, repos.UserRepository, notifications, deps.Storage,
			logger.With().Str("service", "notice").Logger()),
		MessageService: NewMessageService(repos.MessageRepository, repos.UserRepository, repos.GroupRepository,
			notifications, deps.Storage, deps.Push, deps.Notifier, logger.With().Str("service", "message").Logger()),
		ApprovalService: NewApprovalService(repos.ApprovalRepository, notifications,
			logger.With().Str("service", "approval").Logger()),
		AnalyticsService: NewAnalyticsService(repos.ActivityRepository, repos.NoticeRepository, repos.MessageRepository,
			logger.With().Str("service", "analytics").Logger()),
		UserService: NewUserService(repos, deps.Storage, cfg.CascadePolicy,
			logger.With().Str("service", "user").Logger()),
		GroupService: NewGroupService(repos.GroupRepository, repos.UserRepository,
			logger.With().Str("service", "group").Logger()),
	}, nil
}

// requireAuthenticated rejects anonymous callers on read paths
func requireAuthenticated(caller auth.Caller) error {
	if !caller.IsAuthenticated() {
		return auth.Decision{Reason: auth.ReasonUnauthenticated}.Err()
	}
	return nil
}

// internalError hides a store failure behind the internal kind while keeping the cause for logs
func internalError(op string, err error) error {
	if apperrors.KindOf(err) != apperrors.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func ptr[T any](v T) *T { return &v }
