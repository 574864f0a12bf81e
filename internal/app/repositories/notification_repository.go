package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

var notificationColumns = []string{"id", "user_id", "type", "title", "body", "data", "is_read", "created_at"}

const insertNotificationSQL = `
	INSERT INTO notifications (id, user_id, type, title, body, data, is_read)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	RETURNING created_at`

// PgNotificationRepository stores notifications in PostgreSQL
type PgNotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new PgNotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *PgNotificationRepository {
	return &PgNotificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanNotification(row scanner) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateBatch sends all inserts as one pgx batch inside a transaction
func (r *PgNotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if len(notifications) > MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(notifications), MaxBatchSize)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, n := range notifications {
			data := n.Data
			if data == nil {
				data = models.JSONMap{}
			}
			batch.Queue(insertNotificationSQL, n.ID, n.UserID, n.Type, n.Title, n.Body, data)
		}

		results := tx.SendBatch(ctx, batch)
		for _, n := range notifications {
			if err := results.QueryRow().Scan(&n.CreatedAt); err != nil {
				results.Close()
				return fmt.Errorf("error inserting notification for user %s: %w", n.UserID, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("error closing notification batch: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a notification by ID
func (r *PgNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	query, args, err := r.sb.Select(notificationColumns...).From("notifications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	n, err := scanNotification(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification: %w", err)
	}
	return n, nil
}

// ListByUser returns a user's notifications, newest first
func (r *PgNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	builder := r.sb.Select(notificationColumns...).From("notifications").Where(squirrel.Eq{"user_id": userID})
	if unreadOnly {
		builder = builder.Where(squirrel.Eq{"is_read": false})
	}
	builder = builder.OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips is_read; marking an already read notification succeeds
func (r *PgNotificationRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// DeleteByUser removes every notification of a user
func (r *PgNotificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("error deleting notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
