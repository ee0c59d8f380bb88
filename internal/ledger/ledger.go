// Package ledger implements the balance and settlement engine: it reduces
// expense participation rows into per-user net balances, derives settle-up
// transfer plans, and validates proposed expense divisions before they are
// persisted.
//
// Everything in this package is pure: no I/O, no shared state, safe for
// concurrent use. Callers are responsible for handing it a consistent
// snapshot of entries (typically read in a single transaction).
package ledger

// DefaultEpsilon is the tolerance used for floating-point comparisons on
// monetary sums. Balances within DefaultEpsilon of zero are considered
// settled.
const DefaultEpsilon = 1e-6

// Entry is one fully-resolved participation row: ParticipantID owes
// AmountDue toward an expense paid by PayerID. The engine assumes entries
// have already passed division validation; AmountDue is never negative and
// the shares of an expense sum to its total.
type Entry struct {
	ExpenseID     string
	PayerID       string
	ParticipantID string
	AmountDue     float64
}

// NetBalance is a user's signed position within a scope.
// Positive = others owe this user, negative = this user owes others.
type NetBalance struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// Transfer is one settle-up payment: FromUserID pays ToUserID Amount.
// Amounts are always strictly positive and the two users always differ.
type Transfer struct {
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
}

// Share is one (user, amount) pair of a proposed expense division.
type Share struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}
