package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// CreateGroup inserts a group and makes the creator its first member and
// administrator, in a single transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, creatorID string) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, nullable(group.Description), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
		group.ID, creatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to add creator as member: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_administrators (group_id, user_id) VALUES (?, ?)",
		group.ID, creatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to add creator as admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group creation: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	var description sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM groups WHERE id = ?", id,
	).Scan(&group.ID, &group.Name, &description, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Description = description.String
	return group, nil
}

// ListGroupsForUser returns all groups the user is a member of.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		var description sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &description, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group.Description = description.String
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates a group's name and description.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, description = ? WHERE id = ?",
		group.Name, nullable(group.Description), group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group. Members, invites and the group's expenses go
// with it through foreign key cascades.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddGroupMember adds a user to a group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group, dropping any admin role as
// well.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM group_administrators WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove admin role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member removal: %w", err)
	}
	return nil
}

// ListGroupMembers returns the user ids of all members of a group.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	return s.listUserIDs(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id", groupID)
}

// IsGroupMember reports whether the user belongs to the group.
func (s *SQLiteStore) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	return s.exists(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID)
}

// AddGroupAdmin grants a user the administrator role in a group.
func (s *SQLiteStore) AddGroupAdmin(ctx context.Context, groupID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_administrators (group_id, user_id) VALUES (?, ?)",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add group admin: %w", err)
	}
	return nil
}

// RemoveGroupAdmin revokes a user's administrator role.
func (s *SQLiteStore) RemoveGroupAdmin(ctx context.Context, groupID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM group_administrators WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group admin: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListGroupAdmins returns the user ids of all administrators of a group.
func (s *SQLiteStore) ListGroupAdmins(ctx context.Context, groupID string) ([]string, error) {
	return s.listUserIDs(ctx,
		"SELECT user_id FROM group_administrators WHERE group_id = ? ORDER BY user_id", groupID)
}

// IsGroupAdmin reports whether the user administers the group.
func (s *SQLiteStore) IsGroupAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	return s.exists(ctx,
		"SELECT 1 FROM group_administrators WHERE group_id = ? AND user_id = ?", groupID, userID)
}

// CreateGroupInvite persists a group invite and notifies the invited user in
// the same transaction.
func (s *SQLiteStore) CreateGroupInvite(ctx context.Context, invite *models.GroupInvite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.CreatedAt == 0 {
		invite.CreatedAt = time.Now().Unix()
	}
	if invite.Status == "" {
		invite.Status = models.InvitePending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_invites (id, group_id, invited_user_id, inviting_user_id, status, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invite.ID, invite.GroupID, invite.InvitedUserID, invite.InvitingUserID,
		invite.Status, nullable(invite.Message), invite.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create group invite: %w", err)
	}

	err = insertNotification(ctx, tx, &models.Notification{
		NotifiedUserID: invite.InvitedUserID,
		Type:           models.NotifyGroupInvite,
		GroupID:        invite.GroupID,
		UserID:         invite.InvitingUserID,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group invite: %w", err)
	}
	return nil
}

// ListGroupInvites returns all invites addressed to userID.
func (s *SQLiteStore) ListGroupInvites(ctx context.Context, userID string) ([]*models.GroupInvite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, invited_user_id, inviting_user_id, status, message, created_at
		 FROM group_invites WHERE invited_user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.GroupInvite
	for rows.Next() {
		invite := &models.GroupInvite{}
		var message sql.NullString
		if err := rows.Scan(&invite.ID, &invite.GroupID, &invite.InvitedUserID,
			&invite.InvitingUserID, &invite.Status, &message, &invite.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group invite: %w", err)
		}
		invite.Message = message.String
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group invites: %w", err)
	}
	return invites, nil
}

// UpdateGroupInviteStatus transitions an invite addressed to userID and
// returns it. Accepting an invite also adds the user to the group, in the
// same transaction.
func (s *SQLiteStore) UpdateGroupInviteStatus(ctx context.Context, inviteID, userID, status string) (*models.GroupInvite, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE group_invites SET status = ? WHERE id = ? AND invited_user_id = ?",
		status, inviteID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group invite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, storage.ErrNotFound
	}

	invite := &models.GroupInvite{}
	var message sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT id, group_id, invited_user_id, inviting_user_id, status, message, created_at
		 FROM group_invites WHERE id = ?`, inviteID,
	).Scan(&invite.ID, &invite.GroupID, &invite.InvitedUserID,
		&invite.InvitingUserID, &invite.Status, &message, &invite.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload group invite: %w", err)
	}
	invite.Message = message.String

	if status == models.InviteAccepted {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)",
			invite.GroupID, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add invited member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invite update: %w", err)
	}
	return invite, nil
}

func (s *SQLiteStore) listUserIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ids: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}
