package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitsmart/splitsmart/internal/models"
)

const userColumns = `id, username, email, password_hash, account_status,
	preferred_language, notification_preference, created_at, last_login`

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.AccountStatus, user.PreferredLanguage, user.NotificationPreference,
		user.CreatedAt, nullableInt(user.LastLogin),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) if not
// found.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AccountStatus, &user.PreferredLanguage, &user.NotificationPreference,
		&user.CreatedAt, &lastLogin,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Int64
	}
	return user, nil
}

// UpdateLastLogin records the time of the user's most recent login.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, userID string, when int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", when, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateNotificationPreference sets the user's notification preference.
func (s *SQLiteStore) UpdateNotificationPreference(ctx context.Context, userID, preference string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET notification_preference = ? WHERE id = ?", preference, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification preference: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// nullableInt converts 0 to a SQL NULL.
func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
