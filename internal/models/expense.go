package models

// Expense is a shared cost paid by one user and divided among participants.
// A GroupID of "" marks a personal expense between the payer and their
// friends.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Description is the human-readable label.
	Description string `json:"description"`

	// TotalAmount is the full amount paid by the payer. Always positive.
	TotalAmount float64 `json:"total_amount"`

	// PayerID is the user who paid the total.
	PayerID string `json:"payer_id"`

	// GroupID is the owning group, or "" for a personal expense.
	GroupID string `json:"group_id,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"created_at"`

	// Participations is the expense's division. Owned by the expense:
	// replaced wholesale on update, removed on delete.
	Participations []Participation `json:"participations,omitempty"`
}

// Participation is one user's owed share of an expense. A user appears at
// most once per expense and the shares sum to the expense total; both
// invariants are enforced at write time by the division validator.
type Participation struct {
	ExpenseID string  `json:"expense_id"`
	UserID    string  `json:"user_id"`
	AmountDue float64 `json:"amount_due"`
}
