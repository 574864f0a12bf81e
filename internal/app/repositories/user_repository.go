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
	"github.com/yigit/campusmesh/internal/pkg/dberrors"
)

const userEmailConstraint = "users_email_key"

var userColumns = []string{
	"id", "email", "display_name", "photo_url", "role", "department", "year",
	"phone_number", "push_token", "is_active", "created_at", "updated_at",
}

// PgUserRepository stores users in PostgreSQL
type PgUserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new PgUserRepository
func NewUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.Role, &u.Department, &u.Year,
		&u.PhoneNumber, &u.PushToken, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. created_at and updated_at come from the database clock.
func (r *PgUserRepository) Create(ctx context.Context, user *models.User) error {
	query, args, err := r.sb.Insert("users").
		Columns("id", "email", "display_name", "photo_url", "role", "department", "year", "phone_number", "is_active").
		Values(user.ID, user.Email, user.DisplayName, user.PhotoURL, user.Role, user.Department, user.Year, user.PhoneNumber, user.IsActive).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, userEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// List returns one page of users and the total matching count
func (r *PgUserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	where := squirrel.And{}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"role": *filter.Role})
	}
	if filter.ActiveOnly {
		where = append(where, squirrel.Eq{"is_active": true})
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	builder := r.sb.Select(userColumns...).From("users").Where(where).OrderBy("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	users, err := r.queryUsers(ctx, builder)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListActiveByAudience returns every active user whose role matches the audience
func (r *PgUserRepository) ListActiveByAudience(ctx context.Context, audience models.Audience) ([]*models.User, error) {
	builder := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"is_active": true})
	if audience != models.AudienceAll {
		builder = builder.Where(squirrel.Eq{"role": string(audience)})
	}
	return r.queryUsers(ctx, builder.OrderBy("id"))
}

func (r *PgUserRepository) queryUsers(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile applies the self-service profile fields
func (r *PgUserRepository) UpdateProfile(ctx context.Context, id string, changes models.ProfileChanges) (*models.User, error) {
	if changes.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := map[string]interface{}{"updated_at": squirrel.Expr("NOW()")}
	if changes.DisplayName != nil {
		set["display_name"] = *changes.DisplayName
	}
	if changes.PhotoURL != nil {
		set["photo_url"] = *changes.PhotoURL
	}
	if changes.Department != nil {
		set["department"] = *changes.Department
	}
	if changes.Year != nil {
		set["year"] = *changes.Year
	}
	if changes.PhoneNumber != nil {
		set["phone_number"] = *changes.PhoneNumber
	}

	query, args, err := r.sb.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(userColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return user, nil
}

// UpdateRole sets a user's role
func (r *PgUserRepository) UpdateRole(ctx context.Context, id string, role models.RoleType) error {
	return r.execUpdate(ctx, id, map[string]interface{}{"role": role})
}

// UpdatePushToken stores or clears the device push token
func (r *PgUserRepository) UpdatePushToken(ctx context.Context, id string, token *string) error {
	return r.execUpdate(ctx, id, map[string]interface{}{"push_token": token})
}

func (r *PgUserRepository) execUpdate(ctx context.Context, id string, set map[string]interface{}) error {
	set["updated_at"] = squirrel.Expr("NOW()")
	query, args, err := r.sb.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Delete removes a user row
func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
