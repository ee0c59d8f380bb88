package models

// Notification event types.
const (
	NotifyNewExpense         = "NEW_EXPENSE"
	NotifyExpenseModified    = "EXPENSE_MODIFIED"
	NotifyExpenseDeleted     = "EXPENSE_DELETED"
	NotifyGroupInvite        = "GROUP_INVITE"
	NotifyFriendshipAccepted = "FRIENDSHIP_REQUEST_ACCEPTED"
	NotifyFriendshipDenied   = "FRIENDSHIP_REQUEST_DENIED"
)

// Notification is one event delivered to a user's inbox. GroupID, UserID
// and ExpenseID are optional references to the entities the event is about;
// UserID is the actor who caused it.
type Notification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string `json:"id"`

	// NotifiedUserID is the recipient.
	NotifiedUserID string `json:"notified_user_id"`

	// Type is one of the Notify* event constants.
	Type string `json:"type"`

	// GroupID references the group involved, if any.
	GroupID string `json:"group_id,omitempty"`

	// UserID references the user who triggered the event, if any.
	UserID string `json:"user_id,omitempty"`

	// ExpenseID references the expense involved, if any.
	ExpenseID string `json:"expense_id,omitempty"`

	// CreatedAt is the Unix timestamp when the event occurred.
	CreatedAt int64 `json:"created_at"`

	// Read marks whether the recipient has seen it.
	Read bool `json:"read"`
}
