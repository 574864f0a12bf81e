package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/campusmesh/internal/app/models"
)

// PgActivityRepository stores tracked user actions in PostgreSQL
type PgActivityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewActivityRepository creates a new PgActivityRepository
func NewActivityRepository(db *pgxpool.Pool) *PgActivityRepository {
	return &PgActivityRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts one activity row
func (r *PgActivityRepository) Create(ctx context.Context, activity *models.UserActivity) error {
	if activity.Metadata == nil {
		activity.Metadata = models.JSONMap{}
	}
	query, args, err := r.sb.Insert("user_activity").
		Columns("id", "user_id", "action", "metadata", "user_agent", "ip_address").
		Values(activity.ID, activity.UserID, activity.Action, activity.Metadata, activity.UserAgent, activity.IPAddress).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&activity.CreatedAt); err != nil {
		return fmt.Errorf("error creating activity: %w", err)
	}
	return nil
}

// ListCreatedBetween returns activity rows inside the inclusive window, oldest first
func (r *PgActivityRepository) ListCreatedBetween(ctx context.Context, window models.TimeRange) ([]*models.UserActivity, error) {
	query, args, err := r.sb.Select("id", "user_id", "action", "metadata", "user_agent", "ip_address", "created_at").
		From("user_activity").
		Where(squirrel.GtOrEq{"created_at": window.Start}).
		Where(squirrel.LtOrEq{"created_at": window.End}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var out []*models.UserActivity
	for rows.Next() {
		var a models.UserActivity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Metadata, &a.UserAgent, &a.IPAddress, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
