package models

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// GroupInvite is a pending invitation of a user into a group.
type GroupInvite struct {
	// ID is the unique identifier for the invite (UUID format).
	ID string `json:"id"`

	// GroupID is the group the user is invited to.
	GroupID string `json:"group_id"`

	// InvitedUserID is the user receiving the invite.
	InvitedUserID string `json:"invited_user_id"`

	// InvitingUserID is the group member who sent it.
	InvitingUserID string `json:"inviting_user_id"`

	// Status is one of the Invite* constants.
	Status string `json:"status"`

	// Message is an optional note from the inviting member.
	Message string `json:"message,omitempty"`

	// CreatedAt is the Unix timestamp when the invite was sent.
	CreatedAt int64 `json:"created_at"`
}
