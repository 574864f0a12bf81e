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

var approvalColumns = []string{
	"id", "user_id", "type", "data", "status", "processed_by", "processed_at", "reason", "created_at", "updated_at",
}

// PgApprovalRepository stores approval requests in PostgreSQL
type PgApprovalRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApprovalRepository creates a new PgApprovalRepository
func NewApprovalRepository(db *pgxpool.Pool) *PgApprovalRepository {
	return &PgApprovalRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanApproval(row scanner) (*models.ApprovalRequest, error) {
	var a models.ApprovalRequest
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Data, &a.Status, &a.ProcessedBy, &a.ProcessedAt,
		&a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a request in the pending state
func (r *PgApprovalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if req.Data == nil {
		req.Data = models.JSONMap{}
	}
	req.Status = models.ApprovalPending

	query, args, err := r.sb.Insert("approval_requests").
		Columns("id", "user_id", "type", "data", "status").
		Values(req.ID, req.UserID, req.Type, req.Data, req.Status).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("error creating approval request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID
func (r *PgApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query, args, err := r.sb.Select(approvalColumns...).From("approval_requests").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	req, err := scanApproval(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApprovalNotFound
		}
		return nil, fmt.Errorf("error getting approval request: %w", err)
	}
	return req, nil
}

// Resolve moves a pending request to its terminal state. The status predicate
// makes a second resolution fail instead of overwriting the first.
func (r *PgApprovalRepository) Resolve(ctx context.Context, id string, decision models.ApprovalDecision) (*models.ApprovalRequest, error) {
	query, args, err := r.sb.Update("approval_requests").
		Set("status", decision.Status).
		Set("processed_by", decision.ProcessedBy).
		Set("processed_at", squirrel.Expr("NOW()")).
		Set("reason", decision.Reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": models.ApprovalPending}).
		Suffix("RETURNING " + joinColumns(approvalColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	req, err := scanApproval(r.db.QueryRow(ctx, query, args...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("error resolving approval request: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, apperrors.NewInvalidStateError(fmt.Sprintf("approval request already %s", current.Status))
}

// List returns requests, newest first, optionally filtered by status
func (r *PgApprovalRepository) List(ctx context.Context, status *models.ApprovalStatus, limit int) ([]*models.ApprovalRequest, error) {
	builder := r.sb.Select(approvalColumns...).From("approval_requests")
	if status != nil {
		builder = builder.Where(squirrel.Eq{"status": *status})
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

	var out []*models.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
