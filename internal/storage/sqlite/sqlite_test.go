package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitsmart-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username+"@example.com", "hash-"+username)
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch by id, email, username", func(t *testing.T) {
		user := mustCreateUser(t, store, "alice")

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID == nil || byID.Username != "alice" {
			t.Errorf("GetUserByID returned %+v, want alice", byID)
		}
		if byID.AccountStatus != models.AccountActive {
			t.Errorf("AccountStatus = %s, want %s", byID.AccountStatus, models.AccountActive)
		}
		if byID.NotificationPreference != models.NotifyPrefAll {
			t.Errorf("NotificationPreference = %s, want %s", byID.NotificationPreference, models.NotifyPrefAll)
		}

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil || byEmail == nil || byEmail.ID != user.ID {
			t.Errorf("GetUserByEmail = (%+v, %v), want alice", byEmail, err)
		}

		byName, err := store.GetUserByUsername(ctx, "alice")
		if err != nil || byName == nil || byName.ID != user.ID {
			t.Errorf("GetUserByUsername = (%+v, %v), want alice", byName, err)
		}
	})

	t.Run("missing user returns nil without error", func(t *testing.T) {
		user, err := store.GetUserByID(ctx, "nonexistent-id")
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if user != nil {
			t.Errorf("Expected nil for missing user, got %+v", user)
		}
	})

	t.Run("update last login", func(t *testing.T) {
		user := mustCreateUser(t, store, "bob")
		if err := store.UpdateLastLogin(ctx, user.ID, 1700000000); err != nil {
			t.Fatalf("UpdateLastLogin failed: %v", err)
		}
		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.LastLogin != 1700000000 {
			t.Errorf("LastLogin = %d, want 1700000000", got.LastLogin)
		}
	})

	t.Run("update notification preference", func(t *testing.T) {
		user := mustCreateUser(t, store, "carol")
		if err := store.UpdateNotificationPreference(ctx, user.ID, models.NotifyPrefNone); err != nil {
			t.Fatalf("UpdateNotificationPreference failed: %v", err)
		}
		got, _ := store.GetUserByID(ctx, user.ID)
		if got.NotificationPreference != models.NotifyPrefNone {
			t.Errorf("NotificationPreference = %s, want %s", got.NotificationPreference, models.NotifyPrefNone)
		}
	})
}

func TestSQLiteStore_Friendships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	t.Run("friendship pair is symmetric", func(t *testing.T) {
		if err := store.CreateFriendship(ctx, bob.ID, alice.ID); err != nil {
			t.Fatalf("CreateFriendship failed: %v", err)
		}

		for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
			ok, err := store.AreFriends(ctx, pair[0], pair[1])
			if err != nil {
				t.Fatalf("AreFriends failed: %v", err)
			}
			if !ok {
				t.Errorf("AreFriends(%s, %s) = false, want true", pair[0], pair[1])
			}
		}

		friendships, err := store.ListFriendships(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListFriendships failed: %v", err)
		}
		if len(friendships) != 1 {
			t.Fatalf("Expected 1 friendship, got %d", len(friendships))
		}
		if friendships[0].Other(alice.ID) != bob.ID {
			t.Errorf("Other(alice) = %s, want %s", friendships[0].Other(alice.ID), bob.ID)
		}
	})

	t.Run("delete friendship", func(t *testing.T) {
		if err := store.DeleteFriendship(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("DeleteFriendship failed: %v", err)
		}
		ok, _ := store.AreFriends(ctx, alice.ID, bob.ID)
		if ok {
			t.Error("AreFriends = true after deletion")
		}
		if err := store.DeleteFriendship(ctx, alice.ID, bob.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Second delete = %v, want ErrNotFound", err)
		}
	})

	t.Run("invite lifecycle", func(t *testing.T) {
		invite := &models.FriendInvite{
			InvitedUserID:  bob.ID,
			InvitingUserID: alice.ID,
		}
		if err := store.CreateFriendInvite(ctx, invite); err != nil {
			t.Fatalf("CreateFriendInvite failed: %v", err)
		}
		if invite.ID == "" || invite.CreatedAt == 0 || invite.Status != models.InvitePending {
			t.Errorf("Invite not initialized: %+v", invite)
		}

		invites, err := store.ListFriendInvites(ctx, bob.ID)
		if err != nil || len(invites) != 1 {
			t.Fatalf("ListFriendInvites = (%d, %v), want 1 invite", len(invites), err)
		}

		updated, err := store.UpdateFriendInviteStatus(ctx, invite.ID, bob.ID, models.InviteAccepted)
		if err != nil {
			t.Fatalf("UpdateFriendInviteStatus failed: %v", err)
		}
		if updated.Status != models.InviteAccepted {
			t.Errorf("Status = %s, want %s", updated.Status, models.InviteAccepted)
		}
	})

	t.Run("invite update scoped to invited user", func(t *testing.T) {
		invite := &models.FriendInvite{InvitedUserID: bob.ID, InvitingUserID: alice.ID}
		if err := store.CreateFriendInvite(ctx, invite); err != nil {
			t.Fatalf("CreateFriendInvite failed: %v", err)
		}
		_, err := store.UpdateFriendInviteStatus(ctx, invite.ID, alice.ID, models.InviteAccepted)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Update by wrong user = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	t.Run("creator becomes member and admin", func(t *testing.T) {
		group := &models.Group{Name: "Trip", Description: "Summer trip"}
		if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" || group.CreatedAt == 0 {
			t.Errorf("Group not initialized: %+v", group)
		}

		isMember, _ := store.IsGroupMember(ctx, group.ID, alice.ID)
		isAdmin, _ := store.IsGroupAdmin(ctx, group.ID, alice.ID)
		if !isMember || !isAdmin {
			t.Errorf("Creator member=%v admin=%v, want both true", isMember, isAdmin)
		}

		groups, err := store.ListGroupsForUser(ctx, alice.ID)
		if err != nil || len(groups) != 1 {
			t.Fatalf("ListGroupsForUser = (%d, %v), want 1 group", len(groups), err)
		}
		if groups[0].Description != "Summer trip" {
			t.Errorf("Description = %q, want Summer trip", groups[0].Description)
		}
	})

	t.Run("membership management", func(t *testing.T) {
		group := &models.Group{Name: "Flat"}
		if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		if err := store.AddGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		members, err := store.ListGroupMembers(ctx, group.ID)
		if err != nil || len(members) != 2 {
			t.Fatalf("ListGroupMembers = (%v, %v), want 2", members, err)
		}

		if err := store.AddGroupAdmin(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("AddGroupAdmin failed: %v", err)
		}
		if err := store.RemoveGroupMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("RemoveGroupMember failed: %v", err)
		}
		isAdmin, _ := store.IsGroupAdmin(ctx, group.ID, bob.ID)
		if isAdmin {
			t.Error("Admin role survived member removal")
		}
	})

	t.Run("accepting invite joins group and notifies", func(t *testing.T) {
		group := &models.Group{Name: "Dinner club"}
		if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		invite := &models.GroupInvite{
			GroupID:        group.ID,
			InvitedUserID:  bob.ID,
			InvitingUserID: alice.ID,
			Message:        "join us",
		}
		if err := store.CreateGroupInvite(ctx, invite); err != nil {
			t.Fatalf("CreateGroupInvite failed: %v", err)
		}

		notifications, err := store.ListNotifications(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		found := false
		for _, n := range notifications {
			if n.Type == models.NotifyGroupInvite && n.GroupID == group.ID {
				found = true
			}
		}
		if !found {
			t.Error("Expected GROUP_INVITE notification for invited user")
		}

		updated, err := store.UpdateGroupInviteStatus(ctx, invite.ID, bob.ID, models.InviteAccepted)
		if err != nil {
			t.Fatalf("UpdateGroupInviteStatus failed: %v", err)
		}
		if updated.Status != models.InviteAccepted {
			t.Errorf("Status = %s, want %s", updated.Status, models.InviteAccepted)
		}
		isMember, _ := store.IsGroupMember(ctx, group.ID, bob.ID)
		if !isMember {
			t.Error("Accepting invite did not add membership")
		}
	})

	t.Run("deleting group cascades expenses", func(t *testing.T) {
		group := &models.Group{Name: "Ephemeral"}
		if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		store.AddGroupMember(ctx, group.ID, bob.ID)

		expense := &models.Expense{
			Description: "Snacks",
			TotalAmount: 10,
			PayerID:     alice.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 5},
				{UserID: bob.ID, AmountDue: 5},
			},
		}
		if err := store.CreateExpense(ctx, expense, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got != nil {
			t.Error("Expense survived group deletion")
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	carol := mustCreateUser(t, store, "carol")

	group := &models.Group{Name: "House"}
	if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store.AddGroupMember(ctx, group.ID, bob.ID)
	store.AddGroupMember(ctx, group.ID, carol.ID)

	t.Run("create fans out notifications to other participants", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Groceries",
			TotalAmount: 90,
			PayerID:     alice.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 30},
				{UserID: bob.ID, AmountDue: 30},
				{UserID: carol.ID, AmountDue: 30},
			},
		}
		if err := store.CreateExpense(ctx, expense, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" || expense.CreatedAt == 0 {
			t.Errorf("Expense not initialized: %+v", expense)
		}

		for _, recipient := range []*models.User{bob, carol} {
			notifications, err := store.ListNotifications(ctx, recipient.ID)
			if err != nil {
				t.Fatalf("ListNotifications failed: %v", err)
			}
			found := false
			for _, n := range notifications {
				if n.Type == models.NotifyNewExpense && n.ExpenseID == expense.ID && n.UserID == alice.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected NEW_EXPENSE notification for %s", recipient.Username)
			}
		}

		aliceNotifs, _ := store.ListNotifications(ctx, alice.ID)
		for _, n := range aliceNotifs {
			if n.ExpenseID == expense.ID {
				t.Error("Actor received their own expense notification")
			}
		}
	})

	t.Run("preference NONE suppresses fan-out", func(t *testing.T) {
		if err := store.UpdateNotificationPreference(ctx, carol.ID, models.NotifyPrefNone); err != nil {
			t.Fatalf("UpdateNotificationPreference failed: %v", err)
		}
		before, _ := store.ListNotifications(ctx, carol.ID)

		expense := &models.Expense{
			Description: "Utilities",
			TotalAmount: 60,
			PayerID:     alice.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 30},
				{UserID: carol.ID, AmountDue: 30},
			},
		}
		if err := store.CreateExpense(ctx, expense, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		after, _ := store.ListNotifications(ctx, carol.ID)
		if len(after) != len(before) {
			t.Errorf("Notification count changed %d -> %d despite NONE preference", len(before), len(after))
		}
		store.UpdateNotificationPreference(ctx, carol.ID, models.NotifyPrefAll)
	})

	t.Run("preference PERSONAL suppresses group events only", func(t *testing.T) {
		if err := store.UpdateNotificationPreference(ctx, bob.ID, models.NotifyPrefPersonal); err != nil {
			t.Fatalf("UpdateNotificationPreference failed: %v", err)
		}
		before, _ := store.ListNotifications(ctx, bob.ID)

		groupExpense := &models.Expense{
			Description: "Rent",
			TotalAmount: 100,
			PayerID:     alice.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 50},
				{UserID: bob.ID, AmountDue: 50},
			},
		}
		if err := store.CreateExpense(ctx, groupExpense, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		afterGroup, _ := store.ListNotifications(ctx, bob.ID)
		if len(afterGroup) != len(before) {
			t.Errorf("Group expense notified despite PERSONAL preference")
		}

		personal := &models.Expense{
			Description: "Lunch",
			TotalAmount: 20,
			PayerID:     alice.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 10},
				{UserID: bob.ID, AmountDue: 10},
			},
		}
		if err := store.CreateExpense(ctx, personal, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		afterPersonal, _ := store.ListNotifications(ctx, bob.ID)
		if len(afterPersonal) != len(afterGroup)+1 {
			t.Errorf("Personal expense not notified under PERSONAL preference")
		}
		store.UpdateNotificationPreference(ctx, bob.ID, models.NotifyPrefAll)
	})

	t.Run("update replaces participations wholesale", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Dinner",
			TotalAmount: 40,
			PayerID:     bob.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 20},
				{UserID: bob.ID, AmountDue: 20},
			},
		}
		if err := store.CreateExpense(ctx, expense, bob.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.TotalAmount = 60
		expense.Participations = []models.Participation{
			{UserID: alice.ID, AmountDue: 20},
			{UserID: bob.ID, AmountDue: 20},
			{UserID: carol.ID, AmountDue: 20},
		}
		if err := store.UpdateExpense(ctx, expense, bob.ID); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.TotalAmount != 60 || len(got.Participations) != 3 {
			t.Errorf("Got total=%f participations=%d, want 60 and 3", got.TotalAmount, len(got.Participations))
		}

		notifications, _ := store.ListNotifications(ctx, carol.ID)
		found := false
		for _, n := range notifications {
			if n.Type == models.NotifyExpenseModified && n.ExpenseID == expense.ID {
				found = true
			}
		}
		if !found {
			t.Error("Expected EXPENSE_MODIFIED notification after update")
		}
	})

	t.Run("delete removes expense and notifies former participants", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Coffee",
			TotalAmount: 8,
			PayerID:     alice.ID,
			GroupID:     group.ID,
			Participations: []models.Participation{
				{UserID: alice.ID, AmountDue: 4},
				{UserID: bob.ID, AmountDue: 4},
			},
		}
		if err := store.CreateExpense(ctx, expense, alice.ID); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID, alice.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got != nil {
			t.Error("Expense still present after deletion")
		}

		notifications, _ := store.ListNotifications(ctx, bob.ID)
		found := false
		for _, n := range notifications {
			if n.Type == models.NotifyExpenseDeleted && n.ExpenseID == expense.ID {
				found = true
			}
		}
		if !found {
			t.Error("Expected EXPENSE_DELETED notification after deletion")
		}
	})

	t.Run("delete of missing expense returns ErrNotFound", func(t *testing.T) {
		err := store.DeleteExpense(ctx, "nonexistent-id", alice.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteExpense = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_LedgerEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")
	carol := mustCreateUser(t, store, "carol")

	group := &models.Group{Name: "Ski trip"}
	if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store.AddGroupMember(ctx, group.ID, bob.ID)

	groupExpense := &models.Expense{
		Description: "Lift passes",
		TotalAmount: 100,
		PayerID:     alice.ID,
		GroupID:     group.ID,
		Participations: []models.Participation{
			{UserID: alice.ID, AmountDue: 50},
			{UserID: bob.ID, AmountDue: 50},
		},
	}
	if err := store.CreateExpense(ctx, groupExpense, alice.ID); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	personal := &models.Expense{
		Description: "Taxi",
		TotalAmount: 30,
		PayerID:     bob.ID,
		Participations: []models.Participation{
			{UserID: bob.ID, AmountDue: 15},
			{UserID: carol.ID, AmountDue: 15},
		},
	}
	if err := store.CreateExpense(ctx, personal, bob.ID); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("group entries cover only the group", func(t *testing.T) {
		entries, err := store.GroupEntries(ctx, group.ID)
		if err != nil {
			t.Fatalf("GroupEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		var sum float64
		for _, e := range entries {
			if e.ExpenseID != groupExpense.ID {
				t.Errorf("Entry for foreign expense %s", e.ExpenseID)
			}
			sum += e.AmountDue
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("Entry sum = %f, want 100", sum)
		}
	})

	t.Run("personal entries cover only non-group expenses", func(t *testing.T) {
		entries, err := store.PersonalEntries(ctx, bob.ID)
		if err != nil {
			t.Fatalf("PersonalEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		for _, e := range entries {
			if e.ExpenseID != personal.ID {
				t.Errorf("Entry for foreign expense %s", e.ExpenseID)
			}
		}
	})

	t.Run("participant sees personal expense they did not pay", func(t *testing.T) {
		entries, err := store.PersonalEntries(ctx, carol.ID)
		if err != nil {
			t.Fatalf("PersonalEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("Expected 2 entries for carol, got %d", len(entries))
		}
	})
}

func TestForeignKeysAcrossPoolConnections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Hold several connections open at once so the pool is forced to open
	// fresh ones; each must have foreign key enforcement on.
	conns := make([]*sql.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn failed: %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	for i, conn := range conns {
		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("PRAGMA query failed: %v", err)
		}
		if enabled != 1 {
			t.Errorf("connection %d: foreign_keys = %d, want 1", i, enabled)
		}
	}
}

func TestGroupDeleteCascadesOnFreshConnection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	group := &models.Group{Name: "Doomed"}
	if err := store.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store.AddGroupMember(ctx, group.ID, bob.ID)

	expense := &models.Expense{
		Description: "Deposit",
		TotalAmount: 40,
		PayerID:     alice.ID,
		GroupID:     group.ID,
		Participations: []models.Participation{
			{UserID: alice.ID, AmountDue: 20},
			{UserID: bob.ID, AmountDue: 20},
		},
	}
	if err := store.CreateExpense(ctx, expense, alice.ID); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Pin the idle connections so the delete lands on one the pool opens
	// fresh; the cascade must still run there.
	for i := 0; i < 2; i++ {
		conn, err := store.db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn failed: %v", err)
		}
		defer conn.Close()
	}

	if err := store.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	var expenses, participations int
	if err := store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE group_id = ?", group.ID).Scan(&expenses); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if err := store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense_participations WHERE expense_id = ?", expense.ID).Scan(&participations); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if expenses != 0 || participations != 0 {
		t.Errorf("after group delete: %d expenses, %d participations survived, want 0 and 0",
			expenses, participations)
	}

	entries, err := store.GroupEntries(ctx, group.ID)
	if err != nil {
		t.Fatalf("GroupEntries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("deleted group still has %d ledger entries", len(entries))
	}
}

func TestNotificationFanOutLargeGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payer := mustCreateUser(t, store, "payer")
	group := &models.Group{Name: "Everyone"}
	if err := store.CreateGroup(ctx, group, payer.ID); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	// Enough participants to span several preference lookup batches, with
	// one muted user in the last batch.
	total := preferenceQueryBatch + 50
	participations := []models.Participation{{UserID: payer.ID, AmountDue: 1}}
	var muted string
	for i := 0; i < total; i++ {
		user := mustCreateUser(t, store, fmt.Sprintf("member%03d", i))
		if err := store.AddGroupMember(ctx, group.ID, user.ID); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
		participations = append(participations, models.Participation{UserID: user.ID, AmountDue: 1})
		if i == total-1 {
			muted = user.ID
			if err := store.UpdateNotificationPreference(ctx, user.ID, models.NotifyPrefNone); err != nil {
				t.Fatalf("UpdateNotificationPreference failed: %v", err)
			}
		}
	}

	expense := &models.Expense{
		Description:    "Banquet",
		TotalAmount:    float64(total + 1),
		PayerID:        payer.ID,
		GroupID:        group.ID,
		Participations: participations,
	}
	if err := store.CreateExpense(ctx, expense, payer.ID); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	var notified int
	if err := store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE expense_id = ?", expense.ID).Scan(&notified); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if notified != total-1 {
		t.Errorf("notified %d participants, want %d (everyone but the payer and the muted user)",
			notified, total-1)
	}

	var mutedRows int
	if err := store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE expense_id = ? AND notified_user_id = ?",
		expense.ID, muted).Scan(&mutedRows); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if mutedRows != 0 {
		t.Errorf("muted user received %d notifications, want 0", mutedRows)
	}
}

func TestSQLiteStore_Notifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice")
	bob := mustCreateUser(t, store, "bob")

	n := &models.Notification{
		NotifiedUserID: bob.ID,
		Type:           models.NotifyFriendshipAccepted,
		UserID:         alice.ID,
	}
	if err := store.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	t.Run("mark read scoped to recipient", func(t *testing.T) {
		_, err := store.MarkNotificationRead(ctx, n.ID, alice.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Mark by wrong user = %v, want ErrNotFound", err)
		}

		updated, err := store.MarkNotificationRead(ctx, n.ID, bob.ID)
		if err != nil {
			t.Fatalf("MarkNotificationRead failed: %v", err)
		}
		if !updated.Read {
			t.Error("Notification not marked read")
		}
	})

	t.Run("list returns recipient's notifications", func(t *testing.T) {
		notifications, err := store.ListNotifications(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(notifications) != 1 {
			t.Fatalf("Expected 1 notification, got %d", len(notifications))
		}
		if notifications[0].Type != models.NotifyFriendshipAccepted {
			t.Errorf("Type = %s, want %s", notifications[0].Type, models.NotifyFriendshipAccepted)
		}

		empty, err := store.ListNotifications(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("Expected no notifications for alice, got %d", len(empty))
		}
	})
}
