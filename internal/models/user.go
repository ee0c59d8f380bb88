package models

import (
	"time"

	"github.com/google/uuid"
)

// Account status values.
const (
	AccountActive   = "ACTIVE"
	AccountDisabled = "DISABLED"
)

// Notification preference values: which events a user wants to be notified
// about.
const (
	NotifyPrefNone     = "NONE"
	NotifyPrefPersonal = "PERSONAL"
	NotifyPrefAll      = "ALL"
)

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Username is the unique display name chosen at registration.
	Username string `json:"username"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password. Never serialized.
	PasswordHash string `json:"-"`

	// AccountStatus is one of the Account* constants.
	AccountStatus string `json:"account_status"`

	// PreferredLanguage is a BCP 47 language tag for UI localization.
	PreferredLanguage string `json:"preferred_language"`

	// NotificationPreference is one of the NotifyPref* constants.
	NotificationPreference string `json:"notification_preference"`

	// CreatedAt is the Unix timestamp of registration.
	CreatedAt int64 `json:"created_at"`

	// LastLogin is the Unix timestamp of the most recent login, 0 if never.
	LastLogin int64 `json:"last_login,omitempty"`
}

// NewUser creates a user with generated ID, timestamps, and defaults.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		ID:                     uuid.New().String(),
		Username:               username,
		Email:                  email,
		PasswordHash:           passwordHash,
		AccountStatus:          AccountActive,
		PreferredLanguage:      "en",
		NotificationPreference: NotifyPrefAll,
		CreatedAt:              time.Now().Unix(),
	}
}
