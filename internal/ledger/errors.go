package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNonPositiveTotal is returned when a division is proposed for an
	// expense whose total is zero or negative.
	ErrNonPositiveTotal = errors.New("total amount must be positive")

	// ErrEmptyDivision is returned when a division contains no shares.
	ErrEmptyDivision = errors.New("division must contain at least one share")
)

// DivisionMismatchError reports a division whose shares do not sum to the
// expense total within tolerance. It carries both totals for diagnostics.
type DivisionMismatchError struct {
	Expected float64
	Actual   float64
}

func (e *DivisionMismatchError) Error() string {
	return fmt.Sprintf("division sums to %.6f, expected %.6f", e.Actual, e.Expected)
}

// DuplicateParticipantError reports a user appearing twice in one division.
type DuplicateParticipantError struct {
	UserID string
}

func (e *DuplicateParticipantError) Error() string {
	return fmt.Sprintf("duplicate participant %q in division", e.UserID)
}

// NegativeShareError reports a share with a negative amount.
type NegativeShareError struct {
	UserID string
	Amount float64
}

func (e *NegativeShareError) Error() string {
	return fmt.Sprintf("negative share %.6f for participant %q", e.Amount, e.UserID)
}

// NotAMemberError reports a division referencing a user outside the
// expense's scope.
type NotAMemberError struct {
	UserID string
}

func (e *NotAMemberError) Error() string {
	return fmt.Sprintf("user %q is not a member of the expense scope", e.UserID)
}

// DependencyUnavailableError wraps a failure of the membership collaborator.
// It is a retryable infrastructure fault, not a validation error.
type DependencyUnavailableError struct {
	Err error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("membership check unavailable: %v", e.Err)
}

func (e *DependencyUnavailableError) Unwrap() error { return e.Err }

// ConservationError reports a balance snapshot whose credits and debits do
// not cancel out. It indicates corrupted ledger data upstream and is never
// caused by user input; callers must fail the balance query rather than
// return a partial plan.
type ConservationError struct {
	Credit float64
	Debit  float64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("conservation violated: credits %.6f != debits %.6f", e.Credit, e.Debit)
}
