package ledger

import (
	"context"
	"math"
)

// Membership answers whether a user belongs to an expense's scope: the
// group's member list for group expenses, or the payer's friends (plus the
// payer) for private ones. Implementations that hit storage should return
// their underlying error so validation can fail closed.
type Membership interface {
	Contains(ctx context.Context, userID string) (bool, error)
}

// MemberSet is an in-memory Membership over a fixed id set.
type MemberSet map[string]struct{}

// NewMemberSet builds a MemberSet from the given user ids.
func NewMemberSet(userIDs ...string) MemberSet {
	s := make(MemberSet, len(userIDs))
	for _, id := range userIDs {
		s[id] = struct{}{}
	}
	return s
}

func (s MemberSet) Contains(_ context.Context, userID string) (bool, error) {
	_, ok := s[userID]
	return ok, nil
}

// ValidateDivision decides whether a proposed division is acceptable for an
// expense of the given total before anything is persisted.
//
// Checks, in order: the total is positive and the division non-empty; no
// share is negative and no user appears twice; the shares sum to the total
// within 1e-6 * max(1, total); every user belongs to the scope. Membership
// lookups that error fail closed with a DependencyUnavailableError rather
// than rejecting the user.
//
// A single share equal to the total is valid: that is a one-recipient
// expense, which is also how a settle-up payment is recorded.
func ValidateDivision(ctx context.Context, total float64, division []Share, members Membership) error {
	if total <= 0 {
		return ErrNonPositiveTotal
	}
	if len(division) == 0 {
		return ErrEmptyDivision
	}

	seen := make(map[string]struct{}, len(division))
	var sum float64
	for _, share := range division {
		if share.Amount < 0 {
			return &NegativeShareError{UserID: share.UserID, Amount: share.Amount}
		}
		if _, dup := seen[share.UserID]; dup {
			return &DuplicateParticipantError{UserID: share.UserID}
		}
		seen[share.UserID] = struct{}{}
		sum += share.Amount
	}

	// Never exact equality: monetary sums compare within a tolerance
	// scaled by the total.
	if math.Abs(sum-total) > DefaultEpsilon*math.Max(1, total) {
		return &DivisionMismatchError{Expected: total, Actual: sum}
	}

	for _, share := range division {
		ok, err := members.Contains(ctx, share.UserID)
		if err != nil {
			return &DependencyUnavailableError{Err: err}
		}
		if !ok {
			return &NotAMemberError{UserID: share.UserID}
		}
	}
	return nil
}

// EqualShares builds an even division of total across the given users. The
// last share absorbs the rounding remainder so the result always passes
// ValidateDivision's sum check.
func EqualShares(total float64, userIDs []string) []Share {
	if len(userIDs) == 0 {
		return nil
	}
	per := total / float64(len(userIDs))
	shares := make([]Share, len(userIDs))
	var assigned float64
	for i, id := range userIDs[:len(userIDs)-1] {
		shares[i] = Share{UserID: id, Amount: per}
		assigned += per
	}
	shares[len(userIDs)-1] = Share{UserID: userIDs[len(userIDs)-1], Amount: total - assigned}
	return shares
}
