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

// orderPair returns the two user ids in lexicographic order, the canonical
// storage order for friendship rows.
func orderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// ListFriendships returns all friendships involving userID.
func (s *SQLiteStore) ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user1, user2 FROM friendships WHERE user1 = ? OR user2 = ?",
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []models.Friendship
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.User1, &f.User2); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friendships: %w", err)
	}
	return friendships, nil
}

// CreateFriendship links two users.
func (s *SQLiteStore) CreateFriendship(ctx context.Context, userA, userB string) error {
	u1, u2 := orderPair(userA, userB)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO friendships (user1, user2) VALUES (?, ?)", u1, u2)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// DeleteFriendship removes the friendship between two users.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, userA, userB string) error {
	u1, u2 := orderPair(userA, userB)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM friendships WHERE user1 = ? AND user2 = ?", u1, u2)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AreFriends reports whether the two users share a friendship.
func (s *SQLiteStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	u1, u2 := orderPair(userA, userB)
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM friendships WHERE user1 = ? AND user2 = ?", u1, u2,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return true, nil
}

// CreateFriendInvite persists a new friend invite.
func (s *SQLiteStore) CreateFriendInvite(ctx context.Context, invite *models.FriendInvite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.CreatedAt == 0 {
		invite.CreatedAt = time.Now().Unix()
	}
	if invite.Status == "" {
		invite.Status = models.InvitePending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_invites (id, invited_user_id, inviting_user_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		invite.ID, invite.InvitedUserID, invite.InvitingUserID, invite.Status, invite.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create friend invite: %w", err)
	}
	return nil
}

// ListFriendInvites returns all invites addressed to userID, regardless of
// status.
func (s *SQLiteStore) ListFriendInvites(ctx context.Context, userID string) ([]*models.FriendInvite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, invited_user_id, inviting_user_id, status, created_at
		 FROM friend_invites WHERE invited_user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.FriendInvite
	for rows.Next() {
		invite := &models.FriendInvite{}
		if err := rows.Scan(&invite.ID, &invite.InvitedUserID, &invite.InvitingUserID,
			&invite.Status, &invite.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend invite: %w", err)
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friend invites: %w", err)
	}
	return invites, nil
}

// UpdateFriendInviteStatus transitions an invite addressed to userID and
// returns it. Returns storage.ErrNotFound if the invite does not exist or
// belongs to someone else.
func (s *SQLiteStore) UpdateFriendInviteStatus(ctx context.Context, inviteID, userID, status string) (*models.FriendInvite, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE friend_invites SET status = ?
		 WHERE id = ? AND invited_user_id = ?`,
		status, inviteID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update friend invite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, storage.ErrNotFound
	}

	invite := &models.FriendInvite{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, invited_user_id, inviting_user_id, status, created_at
		 FROM friend_invites WHERE id = ?`, inviteID,
	).Scan(&invite.ID, &invite.InvitedUserID, &invite.InvitingUserID,
		&invite.Status, &invite.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload friend invite: %w", err)
	}
	return invite, nil
}
