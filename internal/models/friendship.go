package models

// Invite status values, shared by friend and group invites.
const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
	InviteRejected = "REJECTED"
)

// Friendship links two users. The pair is stored once with User1 < User2
// so lookups never have to check both orders twice.
type Friendship struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// Other returns the friend of userID in this friendship.
func (f Friendship) Other(userID string) string {
	if f.User1 == userID {
		return f.User2
	}
	return f.User1
}

// FriendInvite is a pending friendship request.
type FriendInvite struct {
	// ID is the unique identifier for the invite (UUID format).
	ID string `json:"id"`

	// InvitedUserID is the user receiving the invite.
	InvitedUserID string `json:"invited_user_id"`

	// InvitingUserID is the user who sent it.
	InvitingUserID string `json:"inviting_user_id"`

	// Status is one of the Invite* constants.
	Status string `json:"status"`

	// CreatedAt is the Unix timestamp when the invite was sent.
	CreatedAt int64 `json:"created_at"`
}
