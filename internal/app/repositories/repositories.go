package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/campusmesh/internal/app/models"
)

// MaxBatchSize is the largest number of writes committed in one batch.
const MaxBatchSize = 100

// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// UserRepository persists user profiles
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	ListActiveByAudience(ctx context.Context, audience models.Audience) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, changes models.ProfileChanges) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.RoleType) error
	UpdatePushToken(ctx context.Context, id string, token *string) error
	Delete(ctx context.Context, id string) error
}

// NoticeRepository persists notices
type NoticeRepository interface {
	Create(ctx context.Context, notice *models.Notice) error
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	Update(ctx context.Context, id string, changes models.NoticeChanges) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.NoticeFilter) ([]*models.Notice, error)
	ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.Notice, error)
}

// MessageRepository persists direct and group messages
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// MarkRead flips isRead and stamps readAt. It reports false when the message was already read.
	MarkRead(ctx context.Context, id string) (bool, error)
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error)
	ListByGroup(ctx context.Context, groupID string, limit int) ([]*models.Message, error)
	ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.Message, error)
	DeleteBySender(ctx context.Context, senderID string) (int64, error)
	// DeleteByRecipient removes direct messages addressed to recipientID.
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
}

// NotificationRepository persists fan-out notifications
type NotificationRepository interface {
	// CreateBatch writes all notifications atomically, or none of them.
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// ApprovalRepository persists approval requests
type ApprovalRepository interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	// Resolve applies the decision only while the request is pending.
	Resolve(ctx context.Context, id string, decision models.ApprovalDecision) (*models.ApprovalRequest, error)
	List(ctx context.Context, status *models.ApprovalStatus, limit int) ([]*models.ApprovalRequest, error)
}

// ActivityRepository persists tracked user actions
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.UserActivity) error
	ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.UserActivity, error)
}

// GroupRepository persists groups and memberships. Every membership change
// recomputes Group.MemberCount from the active member rows.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group, owner *models.GroupMember) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	AddMember(ctx context.Context, member *models.GroupMember) (*models.Group, error)
	RemoveMember(ctx context.Context, groupID, userID string) (*models.Group, error)
	RemoveUserMemberships(ctx context.Context, userID string) (int64, error)
	DeactivateOwnedGroups(ctx context.Context, ownerID string) (int64, error)
	IncrementUnread(ctx context.Context, groupID, exceptUserID string) error
	ResetUnread(ctx context.Context, groupID, userID string) error
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         UserRepository
	NoticeRepository       NoticeRepository
	MessageRepository      MessageRepository
	NotificationRepository NotificationRepository
	ApprovalRepository     ApprovalRepository
	ActivityRepository     ActivityRepository
	GroupRepository        GroupRepository
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		NoticeRepository:       NewNoticeRepository(db),
		MessageRepository:      NewMessageRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		ApprovalRepository:     NewApprovalRepository(db),
		ActivityRepository:     NewActivityRepository(db),
		GroupRepository:        NewGroupRepository(db),
	}
}
