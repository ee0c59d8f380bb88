// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/models"
)

// ErrNotFound is returned when a requested row does not exist (or does not
// belong to the caller, for caller-scoped lookups).
var ErrNotFound = errors.New("not found")

// Store is the persistence interface for the whole service. The abstraction
// keeps the service layer free of SQL and lets backends be swapped without
// touching it.
//
// Expense writes are transactional: the expense row, its participations and
// the notification fan-out to participants commit or roll back together.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID string, when int64) error
	UpdateNotificationPreference(ctx context.Context, userID, preference string) error

	// Friendships and friend invites
	ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error)
	CreateFriendship(ctx context.Context, userA, userB string) error
	DeleteFriendship(ctx context.Context, userA, userB string) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	CreateFriendInvite(ctx context.Context, invite *models.FriendInvite) error
	ListFriendInvites(ctx context.Context, userID string) ([]*models.FriendInvite, error)
	// UpdateFriendInviteStatus transitions an invite addressed to userID and
	// returns the updated invite; ErrNotFound if no such invite exists.
	UpdateFriendInviteStatus(ctx context.Context, inviteID, userID, status string) (*models.FriendInvite, error)

	// Groups, membership, administration, invites
	CreateGroup(ctx context.Context, group *models.Group, creatorID string) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	AddGroupMember(ctx context.Context, groupID, userID string) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
	ListGroupMembers(ctx context.Context, groupID string) ([]string, error)
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)
	AddGroupAdmin(ctx context.Context, groupID, userID string) error
	RemoveGroupAdmin(ctx context.Context, groupID, userID string) error
	ListGroupAdmins(ctx context.Context, groupID string) ([]string, error)
	IsGroupAdmin(ctx context.Context, groupID, userID string) (bool, error)
	CreateGroupInvite(ctx context.Context, invite *models.GroupInvite) error
	ListGroupInvites(ctx context.Context, userID string) ([]*models.GroupInvite, error)
	UpdateGroupInviteStatus(ctx context.Context, inviteID, userID, status string) (*models.GroupInvite, error)

	// Expenses. actorID is the authenticated caller, recorded on the
	// notification rows fanned out to participants.
	CreateExpense(ctx context.Context, expense *models.Expense, actorID string) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense, actorID string) error
	DeleteExpense(ctx context.Context, id, actorID string) error
	ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)
	ListPersonalExpenses(ctx context.Context, userID string) ([]*models.Expense, error)

	// Ledger loader: all participation entries of a scope, read in one
	// query so the engine sees a consistent snapshot.
	GroupEntries(ctx context.Context, groupID string) ([]ledger.Entry, error)
	PersonalEntries(ctx context.Context, userID string) ([]ledger.Entry, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) (*models.Notification, error)

	// Close releases any resources held by the store.
	Close() error
}
