package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// CreateExpense inserts an expense, its participations and the notification
// fan-out to participants in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, actorID string) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, total_amount, payer_id, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.TotalAmount,
		expense.PayerID, nullable(expense.GroupID), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if err := insertParticipations(ctx, tx, expense); err != nil {
		return err
	}
	if err := notifyParticipants(ctx, tx, expense, actorID, models.NotifyNewExpense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its participations. Returns
// (nil, nil) if not found.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	expense := &models.Expense{}
	var groupID sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, total_amount, payer_id, group_id, created_at
		 FROM expenses WHERE id = ?`, id,
	).Scan(&expense.ID, &expense.Description, &expense.TotalAmount,
		&expense.PayerID, &groupID, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.GroupID = groupID.String

	expense.Participations, err = s.expenseParticipations(ctx, expense.ID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense rewrites an expense and replaces its participations
// wholesale, notifying the new participant set in the same transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense, actorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, total_amount = ?, payer_id = ?, group_id = ?
		 WHERE id = ?`,
		expense.Description, expense.TotalAmount, expense.PayerID,
		nullable(expense.GroupID), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM expense_participations WHERE expense_id = ?", expense.ID)
	if err != nil {
		return fmt.Errorf("failed to clear participations: %w", err)
	}

	if err := insertParticipations(ctx, tx, expense); err != nil {
		return err
	}
	if err := notifyParticipants(ctx, tx, expense, actorID, models.NotifyExpenseModified); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense update: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense and its participations, notifying the
// former participants in the same transaction.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id, actorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expense := &models.Expense{}
	var groupID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT id, group_id FROM expenses WHERE id = ?`, id,
	).Scan(&expense.ID, &groupID)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load expense: %w", err)
	}
	expense.GroupID = groupID.String

	rows, err := tx.QueryContext(ctx,
		"SELECT user_id FROM expense_participations WHERE expense_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		expense.Participations = append(expense.Participations, models.Participation{
			ExpenseID: id,
			UserID:    userID,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Participations cascade with the expense row.
	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := notifyParticipants(ctx, tx, expense, actorID, models.NotifyExpenseDeleted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expense deletion: %w", err)
	}
	return nil
}

// ListGroupExpenses returns all expenses belonging to a group, newest first.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id, description, total_amount, payer_id, group_id, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC`,
		groupID,
	)
}

// ListPersonalExpenses returns all non-group expenses the user paid or
// participates in, newest first.
func (s *SQLiteStore) ListPersonalExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT DISTINCT e.id, e.description, e.total_amount, e.payer_id, e.group_id, e.created_at
		 FROM expenses e
		 LEFT JOIN expense_participations p ON p.expense_id = e.id
		 WHERE e.group_id IS NULL AND (e.payer_id = ? OR p.user_id = ?)
		 ORDER BY e.created_at DESC`,
		userID, userID,
	)
}

// GroupEntries loads every participation of a group's expenses as ledger
// entries, in one query so the engine sees a consistent snapshot.
func (s *SQLiteStore) GroupEntries(ctx context.Context, groupID string) ([]ledger.Entry, error) {
	return s.loadEntries(ctx,
		`SELECT e.id, e.payer_id, p.user_id, p.amount_due
		 FROM expenses e
		 JOIN expense_participations p ON p.expense_id = e.id
		 WHERE e.group_id = ?`,
		groupID,
	)
}

// PersonalEntries loads every participation of the user's non-group expenses
// as ledger entries. An expense qualifies when the user paid it or owes a
// share of it.
func (s *SQLiteStore) PersonalEntries(ctx context.Context, userID string) ([]ledger.Entry, error) {
	return s.loadEntries(ctx,
		`SELECT e.id, e.payer_id, p.user_id, p.amount_due
		 FROM expenses e
		 JOIN expense_participations p ON p.expense_id = e.id
		 WHERE e.group_id IS NULL AND e.id IN (
		     SELECT e2.id FROM expenses e2
		     LEFT JOIN expense_participations p2 ON p2.expense_id = e2.id
		     WHERE e2.payer_id = ? OR p2.user_id = ?
		 )`,
		userID, userID,
	)
}

func (s *SQLiteStore) loadEntries(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var amountDue sql.NullFloat64
		if err := rows.Scan(&e.ExpenseID, &e.PayerID, &e.ParticipantID, &amountDue); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if !amountDue.Valid {
			return nil, fmt.Errorf("participation of %s in expense %s has no amount", e.ParticipantID, e.ExpenseID)
		}
		e.AmountDue = amountDue.Float64
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var groupID sql.NullString
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.TotalAmount,
			&expense.PayerID, &groupID, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.GroupID = groupID.String
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		expense.Participations, err = s.expenseParticipations(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *SQLiteStore) expenseParticipations(ctx context.Context, expenseID string) ([]models.Participation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount_due
		 FROM expense_participations WHERE expense_id = ? ORDER BY user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load participations: %w", err)
	}
	defer rows.Close()

	var participations []models.Participation
	for rows.Next() {
		var p models.Participation
		var amountDue sql.NullFloat64
		if err := rows.Scan(&p.ExpenseID, &p.UserID, &amountDue); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.AmountDue = amountDue.Float64
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}

func insertParticipations(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, p := range expense.Participations {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participations (expense_id, user_id, amount_due) VALUES (?, ?, ?)",
			expense.ID, p.UserID, p.AmountDue,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participation: %w", err)
		}
	}
	return nil
}

// notifyParticipants fans out one notification per participant other than
// the actor, honoring each recipient's notification preference: NONE
// suppresses everything, PERSONAL suppresses group expense events.
func notifyParticipants(ctx context.Context, tx *sql.Tx, expense *models.Expense, actorID, notifType string) error {
	var recipients []string
	for _, p := range expense.Participations {
		if p.UserID != actorID {
			recipients = append(recipients, p.UserID)
		}
	}
	if expense.PayerID != actorID {
		found := false
		for _, r := range recipients {
			if r == expense.PayerID {
				found = true
				break
			}
		}
		if !found {
			recipients = append(recipients, expense.PayerID)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	prefs, err := loadPreferences(ctx, tx, recipients)
	if err != nil {
		return err
	}

	for _, userID := range recipients {
		switch prefs[userID] {
		case models.NotifyPrefNone:
			continue
		case models.NotifyPrefPersonal:
			if expense.GroupID != "" {
				continue
			}
		}
		err := insertNotification(ctx, tx, &models.Notification{
			NotifiedUserID: userID,
			Type:           notifType,
			GroupID:        expense.GroupID,
			UserID:         actorID,
			ExpenseID:      expense.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// preferenceQueryBatch caps the IN list size per statement. SQLite limits
// the number of host parameters, so very large groups are looked up in
// several queries.
const preferenceQueryBatch = 100

func loadPreferences(ctx context.Context, tx *sql.Tx, userIDs []string) (map[string]string, error) {
	prefs := make(map[string]string, len(userIDs))
	for start := 0; start < len(userIDs); start += preferenceQueryBatch {
		batch := userIDs[start:min(start+preferenceQueryBatch, len(userIDs))]
		if err := loadPreferenceBatch(ctx, tx, batch, prefs); err != nil {
			return nil, err
		}
	}
	return prefs, nil
}

func loadPreferenceBatch(ctx context.Context, tx *sql.Tx, userIDs []string, prefs map[string]string) error {
	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, notification_preference FROM users WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load notification preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, pref string
		if err := rows.Scan(&id, &pref); err != nil {
			return fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[id] = pref
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return nil
}
