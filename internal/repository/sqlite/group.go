package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sjlee/walkinggo/internal/apperror"
	"github.com/sjlee/walkinggo/internal/model"
)

// groupColumns is the SELECT list every group read shares: the group row
// joined with the owner's username plus a member count subquery.
const groupColumns = `
	g.id, g.name, g.description, g.owner_id, u.username,
	g.is_public, g.participation_code, g.total_distance_meters, g.created_at,
	(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
`

// CreateGroup inserts a new group, assigning the ID and creation time in
// place. The owner membership row is the caller's responsibility (added in
// the same transaction by the service).
func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()
	group.CreatedAt = time.Now()

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO user_groups (id, name, description, owner_id, is_public, participation_code, total_distance_meters, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.Name,
		nullIfEmpty(group.Description),
		group.OwnerID,
		group.IsPublic,
		nullIfEmpty(group.ParticipationCode),
		group.TotalDistanceMeters,
		group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating group: %w", err)
	}
	return nil
}

// GroupByID returns the group with owner username and member count populated.
func (db *DB) GroupByID(ctx context.Context, id string) (*model.Group, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+`
		 FROM user_groups g JOIN users u ON u.id = g.owner_id
		 WHERE g.id = ?`,
		id,
	)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.GroupNotFound(id)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", id, err)
	}
	return group, nil
}

// GroupByCode resolves a participation code to its group.
func (db *DB) GroupByCode(ctx context.Context, code string) (*model.Group, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+groupColumns+`
		 FROM user_groups g JOIN users u ON u.id = g.owner_id
		 WHERE g.participation_code = ?`,
		code,
	)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.InvalidCode()
		}
		return nil, fmt.Errorf("sqlite: getting group by code: %w", err)
	}
	return group, nil
}

// ParticipationCodeExists reports whether any group holds the code.
func (db *DB) ParticipationCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_groups WHERE participation_code = ?)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking participation code: %w", err)
	}
	return exists, nil
}

// PublicGroups lists public groups ordered by name ascending. A non-empty
// nameFilter narrows the list to names containing it, case-insensitively.
func (db *DB) PublicGroups(ctx context.Context, nameFilter string) ([]model.Group, error) {
	query := `SELECT ` + groupColumns + `
		 FROM user_groups g JOIN users u ON u.id = g.owner_id
		 WHERE g.is_public = 1`
	args := []any{}
	if nameFilter != "" {
		// LIKE is case-insensitive for ASCII in SQLite by default.
		query += ` AND g.name LIKE ?`
		args = append(args, "%"+nameFilter+"%")
	}
	query += ` ORDER BY g.name ASC`

	return db.queryGroups(ctx, query, args...)
}

// PublicGroupsByDistance lists public groups ordered by total distance
// descending, name ascending. This ordering is the leaderboard contract:
// ties sort by name and the service assigns dense ranks in row order.
func (db *DB) PublicGroupsByDistance(ctx context.Context) ([]model.Group, error) {
	return db.queryGroups(ctx,
		`SELECT `+groupColumns+`
		 FROM user_groups g JOIN users u ON u.id = g.owner_id
		 WHERE g.is_public = 1
		 ORDER BY g.total_distance_meters DESC, g.name ASC`,
	)
}

// DeleteGroup removes the group row. Memberships must be detached first.
func (db *DB) DeleteGroup(ctx context.Context, id string) error {
	result, err := db.q.ExecContext(ctx, `DELETE FROM user_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.GroupNotFound(id)
	}
	return nil
}

// AddDistance adds meters to the group's running total as a single atomic
// UPDATE, so concurrent walk logs from different members never lose an
// increment to a read-modify-write race.
func (db *DB) AddDistance(ctx context.Context, groupID string, meters float64) error {
	result, err := db.q.ExecContext(ctx,
		`UPDATE user_groups
		 SET total_distance_meters = total_distance_meters + ?
		 WHERE id = ?`,
		meters, groupID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding distance to group %s: %w", groupID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.GroupNotFound(groupID)
	}
	return nil
}

// AddMember inserts the membership relation.
func (db *DB) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := db.q.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding member to group %s: %w", groupID, err)
	}
	return nil
}

// RemoveMember deletes the membership relation.
func (db *DB) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := db.q.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing member from group %s: %w", groupID, err)
	}
	return nil
}

// RemoveAllMembers detaches every member from the group. Run before
// DeleteGroup so no membership row ever references a deleted group.
func (db *DB) RemoveAllMembers(ctx context.Context, groupID string) error {
	_, err := db.q.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ?`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing members of group %s: %w", groupID, err)
	}
	return nil
}

// IsMember reports whether the user belongs to the group.
func (db *DB) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := db.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking membership: %w", err)
	}
	return exists, nil
}

// GroupIDForUser returns the ID of the user's group, or "" when the user
// is unaffiliated. The one-group-per-user invariant means at most one row
// can match; LIMIT 1 documents the expectation rather than enforcing it.
func (db *DB) GroupIDForUser(ctx context.Context, userID string) (string, error) {
	var groupID string
	err := db.q.QueryRowContext(ctx,
		`SELECT group_id FROM group_members WHERE user_id = ? LIMIT 1`,
		userID,
	).Scan(&groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: finding group for user %s: %w", userID, err)
	}
	return groupID, nil
}

// GroupMembers lists the group's members ordered by username.
func (db *DB) GroupMembers(ctx context.Context, groupID string) ([]model.Member, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT u.id, u.username
		 FROM group_members m JOIN users u ON u.id = m.user_id
		 WHERE m.group_id = ?
		 ORDER BY u.username ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of group %s: %w", groupID, err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Username); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}
	return members, nil
}

// queryGroups runs a multi-row group query using the shared column list.
func (db *DB) queryGroups(ctx context.Context, query string, args ...any) ([]model.Group, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*model.Group, error) {
	var (
		group       model.Group
		description sql.NullString
		code        sql.NullString
	)
	err := row.Scan(
		&group.ID,
		&group.Name,
		&description,
		&group.OwnerID,
		&group.OwnerUsername,
		&group.IsPublic,
		&code,
		&group.TotalDistanceMeters,
		&group.CreatedAt,
		&group.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	group.Description = description.String
	group.ParticipationCode = code.String
	return &group, nil
}

// nullIfEmpty maps "" to NULL so the UNIQUE participation_code constraint
// ignores public groups (SQLite treats NULLs as distinct).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
