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

var noticeColumns = []string{
	"id", "title", "content", "type", "target_audience", "author_id", "author_name",
	"is_active", "expires_at", "attachments", "created_at", "updated_at",
}

// PgNoticeRepository stores notices in PostgreSQL
type PgNoticeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNoticeRepository creates a new PgNoticeRepository
func NewNoticeRepository(db *pgxpool.Pool) *PgNoticeRepository {
	return &PgNoticeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanNotice(row scanner) (*models.Notice, error) {
	var n models.Notice
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Type, &n.TargetAudience, &n.AuthorID, &n.AuthorName,
		&n.IsActive, &n.ExpiresAt, &n.Attachments, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notice and fills in the server-assigned timestamps
func (r *PgNoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	notice.Attachments = nonNil(notice.Attachments)
	query, args, err := r.sb.Insert("notices").
		Columns("id", "title", "content", "type", "target_audience", "author_id", "author_name", "is_active", "expires_at", "attachments").
		Values(notice.ID, notice.Title, notice.Content, notice.Type, notice.TargetAudience, notice.AuthorID,
			notice.AuthorName, notice.IsActive, notice.ExpiresAt, notice.Attachments).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&notice.CreatedAt, &notice.UpdatedAt); err != nil {
		return fmt.Errorf("error creating notice: %w", err)
	}
	return nil
}

// GetByID retrieves a notice by ID
func (r *PgNoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	query, args, err := r.sb.Select(noticeColumns...).From("notices").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	notice, err := scanNotice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("error getting notice: %w", err)
	}
	return notice, nil
}

// Update applies a partial update and refreshes updated_at
func (r *PgNoticeRepository) Update(ctx context.Context, id string, changes models.NoticeChanges) (*models.Notice, error) {
	set := map[string]interface{}{"updated_at": squirrel.Expr("NOW()")}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Content != nil {
		set["content"] = *changes.Content
	}
	if changes.Type != nil {
		set["type"] = *changes.Type
	}
	if changes.TargetAudience != nil {
		set["target_audience"] = *changes.TargetAudience
	}
	if changes.ExpiresAt != nil {
		set["expires_at"] = *changes.ExpiresAt
	}
	if changes.IsActive != nil {
		set["is_active"] = *changes.IsActive
	}
	if changes.Attachments != nil {
		set["attachments"] = changes.Attachments
	}

	query, args, err := r.sb.Update("notices").SetMap(set).Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(noticeColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	notice, err := scanNotice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("error updating notice: %w", err)
	}
	return notice, nil
}

// Delete removes a notice
func (r *PgNoticeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting notice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNoticeNotFound
	}
	return nil
}

// List returns the most recent notices matching the filter
func (r *PgNoticeRepository) List(ctx context.Context, filter models.NoticeFilter) ([]*models.Notice, error) {
	builder := r.sb.Select(noticeColumns...).From("notices")
	if filter.Type != nil {
		builder = builder.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.TargetAudience != nil {
		builder = builder.Where(squirrel.Eq{"target_audience": *filter.TargetAudience})
	}
	if filter.ActiveOnly {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}
	builder = builder.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	return r.queryNotices(ctx, builder)
}

// ListCreatedBetween returns notices created inside the inclusive window
func (r *PgNoticeRepository) ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.Notice, error) {
	builder := r.sb.Select(noticeColumns...).From("notices").
		Where(squirrel.GtOrEq{"created_at": window.Start}).
		Where(squirrel.LtOrEq{"created_at": window.End}).
		OrderBy("created_at ASC")
	return r.queryNotices(ctx, builder)
}

func (r *PgNoticeRepository) queryNotices(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Notice, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var notices []*models.Notice
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		notices = append(notices, notice)
	}
	return notices, rows.Err()
}
