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

var (
	groupColumns  = []string{"id", "name", "description", "owner_id", "group_type", "member_count", "is_active", "created_at", "updated_at"}
	memberColumns = []string{"group_id", "user_id", "role", "status", "joined_at", "unread_count"}
)

const recountMembersSQL = `
	UPDATE groups SET
		member_count = (SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND status = 'active'),
		updated_at = NOW()
	WHERE id = $1
	RETURNING id, name, description, owner_id, group_type, member_count, is_active, created_at, updated_at`

// PgGroupRepository stores groups and memberships in PostgreSQL
type PgGroupRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewGroupRepository creates a new PgGroupRepository
func NewGroupRepository(db *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanGroup(row scanner) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.GroupType, &g.MemberCount,
		&g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanMember(row scanner) (*models.GroupMember, error) {
	var m models.GroupMember
	if err := row.Scan(&m.GroupID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt, &m.UnreadCount); err != nil {
		return nil, err
	}
	return &m, nil
}

func recount(ctx context.Context, tx pgx.Tx, groupID string) (*models.Group, error) {
	group, err := scanGroup(tx.QueryRow(ctx, recountMembersSQL, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error recounting members: %w", err)
	}
	return group, nil
}

// Create inserts the group together with its owner membership
func (r *PgGroupRepository) Create(ctx context.Context, group *models.Group, owner *models.GroupMember) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO groups (id, name, description, owner_id, group_type, member_count, is_active)
			VALUES ($1, $2, $3, $4, $5, 0, $6)`,
			group.ID, group.Name, group.Description, group.OwnerID, group.GroupType, group.IsActive)
		if err != nil {
			return fmt.Errorf("error creating group: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO group_members (group_id, user_id, role, status)
			VALUES ($1, $2, $3, $4)
			RETURNING joined_at`,
			owner.GroupID, owner.UserID, owner.Role, owner.Status).Scan(&owner.JoinedAt)
		if err != nil {
			return fmt.Errorf("error adding group owner: %w", err)
		}

		created, err := recount(ctx, tx, group.ID)
		if err != nil {
			return err
		}
		*group = *created
		return nil
	})
}

// GetByID retrieves a group by ID
func (r *PgGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query, args, err := r.sb.Select(groupColumns...).From("groups").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	group, err := scanGroup(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error getting group: %w", err)
	}
	return group, nil
}

// GetMember retrieves one membership row
func (r *PgGroupRepository) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	query, args, err := r.sb.Select(memberColumns...).From("group_members").
		Where(squirrel.Eq{"group_id": groupID, "user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	member, err := scanMember(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting group member: %w", err)
	}
	return member, nil
}

// ListMembers returns every membership row of a group
func (r *PgGroupRepository) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	query, args, err := r.sb.Select(memberColumns...).From("group_members").
		Where(squirrel.Eq{"group_id": groupID}).OrderBy("joined_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts or reactivates a membership and recounts the group
func (r *PgGroupRepository) AddMember(ctx context.Context, member *models.GroupMember) (*models.Group, error) {
	var group *models.Group
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM groups WHERE id = $1 FOR UPDATE`, member.GroupID); err != nil {
			return fmt.Errorf("error locking group: %w", err)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO group_members (group_id, user_id, role, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_id, user_id) DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status
			RETURNING joined_at, unread_count`,
			member.GroupID, member.UserID, member.Role, member.Status).Scan(&member.JoinedAt, &member.UnreadCount)
		if err != nil {
			return fmt.Errorf("error adding group member: %w", err)
		}

		group, err = recount(ctx, tx, member.GroupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveMember deletes a membership and recounts the group
func (r *PgGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	var group *models.Group
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
			return fmt.Errorf("error locking group: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
		if err != nil {
			return fmt.Errorf("error removing group member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrMemberNotFound
		}

		group, err = recount(ctx, tx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveUserMemberships deletes every membership of a user and recounts the affected groups
func (r *PgGroupRepository) RemoveUserMemberships(ctx context.Context, userID string) (int64, error) {
	var removed int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM group_members WHERE user_id = $1 RETURNING group_id`, userID)
		if err != nil {
			return fmt.Errorf("error removing memberships: %w", err)
		}
		groupIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("error collecting memberships: %w", err)
		}

		for _, groupID := range groupIDs {
			if _, err := recount(ctx, tx, groupID); err != nil && !errors.Is(err, apperrors.ErrGroupNotFound) {
				return err
			}
		}
		removed = int64(len(groupIDs))
		return nil
	})
	return removed, err
}

// DeactivateOwnedGroups marks every active group owned by ownerID inactive
func (r *PgGroupRepository) DeactivateOwnedGroups(ctx context.Context, ownerID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE groups SET is_active = FALSE, updated_at = NOW() WHERE owner_id = $1 AND is_active`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("error deactivating owned groups: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementUnread bumps the unread counter of every active member except the sender
func (r *PgGroupRepository) IncrementUnread(ctx context.Context, groupID, exceptUserID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE group_members SET unread_count = unread_count + 1
		WHERE group_id = $1 AND user_id <> $2 AND status = 'active'`, groupID, exceptUserID)
	if err != nil {
		return fmt.Errorf("error incrementing unread count: %w", err)
	}
	return nil
}

// ResetUnread clears a member's unread counter
func (r *PgGroupRepository) ResetUnread(ctx context.Context, groupID, userID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE group_members SET unread_count = 0 WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("error resetting unread count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMemberNotFound
	}
	return nil
}
