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

var messageColumns = []string{
	"id", "sender_id", "recipient_id", "content", "type", "attachment_url", "is_read", "read_at",
	"group_id", "is_group_message", "reply_to_message_id", "mention_ids", "created_at",
}

// PgMessageRepository stores messages in PostgreSQL
type PgMessageRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new PgMessageRepository
func NewMessageRepository(db *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanMessage(row scanner) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Type, &m.AttachmentURL, &m.IsRead, &m.ReadAt,
		&m.GroupID, &m.IsGroupMessage, &m.ReplyToMessageID, &m.MentionIDs, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a message; created_at is assigned by the database
func (r *PgMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	msg.MentionIDs = nonNil(msg.MentionIDs)
	query, args, err := r.sb.Insert("messages").
		Columns("id", "sender_id", "recipient_id", "content", "type", "attachment_url", "is_read",
			"group_id", "is_group_message", "reply_to_message_id", "mention_ids").
		Values(msg.ID, msg.SenderID, msg.RecipientID, msg.Content, msg.Type, msg.AttachmentURL, msg.IsRead,
			msg.GroupID, msg.IsGroupMessage, msg.ReplyToMessageID, msg.MentionIDs).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&msg.CreatedAt); err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *PgMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query, args, err := r.sb.Select(messageColumns...).From("messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	msg, err := scanMessage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("error getting message: %w", err)
	}
	return msg, nil
}

// MarkRead sets is_read and read_at once
func (r *PgMessageRepository) MarkRead(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND is_read = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("error marking message read: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking message: %w", err)
	}
	if !exists {
		return false, apperrors.ErrMessageNotFound
	}
	return false, nil
}

// ListConversation returns the direct messages between two users, oldest first
func (r *PgMessageRepository) ListConversation(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error) {
	builder := r.sb.Select(messageColumns...).From("messages").
		Where(squirrel.Eq{"is_group_message": false}).
		Where(squirrel.Or{
			squirrel.Eq{"sender_id": userA, "recipient_id": userB},
			squirrel.Eq{"sender_id": userB, "recipient_id": userA},
		})
	return r.queryLatest(ctx, builder, limit)
}

// ListByGroup returns the messages of a group, oldest first
func (r *PgMessageRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*models.Message, error) {
	builder := r.sb.Select(messageColumns...).From("messages").Where(squirrel.Eq{"group_id": groupID})
	return r.queryLatest(ctx, builder, limit)
}

// queryLatest keeps the newest limit rows and returns them in created_at order
func (r *PgMessageRepository) queryLatest(ctx context.Context, builder squirrel.SelectBuilder, limit int) ([]*models.Message, error) {
	builder = builder.OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	msgs, err := r.queryMessages(ctx, builder)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListCreatedBetween returns messages created inside the inclusive window
func (r *PgMessageRepository) ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.Message, error) {
	builder := r.sb.Select(messageColumns...).From("messages").
		Where(squirrel.GtOrEq{"created_at": window.Start}).
		Where(squirrel.LtOrEq{"created_at": window.End}).
		OrderBy("created_at ASC")
	return r.queryMessages(ctx, builder)
}

func (r *PgMessageRepository) queryMessages(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Message, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// DeleteBySender removes every message sent by senderID
func (r *PgMessageRepository) DeleteBySender(ctx context.Context, senderID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE sender_id = $1`, senderID)
	if err != nil {
		return 0, fmt.Errorf("error deleting messages by sender: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByRecipient removes direct messages addressed to recipientID
func (r *PgMessageRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM messages WHERE recipient_id = $1 AND is_group_message = FALSE`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("error deleting messages by recipient: %w", err)
	}
	return tag.RowsAffected(), nil
}
