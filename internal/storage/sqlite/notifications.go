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

// insertNotification writes one notification row inside an existing
// transaction, generating its id and timestamp.
func insertNotification(ctx context.Context, tx *sql.Tx, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (id, notified_user_id, type, group_id, user_id, expense_id, created_at, read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.NotifiedUserID, n.Type, nullable(n.GroupID), nullable(n.UserID),
		nullable(n.ExpenseID), n.CreatedAt, n.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// CreateNotification persists a single notification outside of any larger
// transaction. Used by friend invite responses.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNotification(ctx, tx, n); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notification: %w", err)
	}
	return nil
}

// ListNotifications returns all notifications addressed to userID, newest
// first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, notified_user_id, type, group_id, user_id, expense_id, created_at, read
		 FROM notifications WHERE notified_user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a notification addressed to userID as read and
// returns it. Returns storage.ErrNotFound if the notification does not exist
// or belongs to someone else.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, notificationID, userID string) (*models.Notification, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ? AND notified_user_id = ?",
		notificationID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, storage.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, notified_user_id, type, group_id, user_id, expense_id, created_at, read
		 FROM notifications WHERE id = ?`, notificationID,
	)
	n, err := scanNotification(row.Scan)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func scanNotification(scan func(...any) error) (*models.Notification, error) {
	n := &models.Notification{}
	var groupID, userID, expenseID sql.NullString
	err := scan(&n.ID, &n.NotifiedUserID, &n.Type, &groupID, &userID,
		&expenseID, &n.CreatedAt, &n.Read)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	n.GroupID = groupID.String
	n.UserID = userID.String
	n.ExpenseID = expenseID.String
	return n, nil
}
