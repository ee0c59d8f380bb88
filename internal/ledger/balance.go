package ledger

import (
	"container/heap"
	"math"
	"sort"
)

// ComputeBalances reduces a scope's entries into one net balance per user.
//
// For every entry the payer is credited the share and the participant is
// debited it; a payer's own share cancels itself out, which is correct (a
// self-share is not a debt). Addition is commutative, so entries may arrive
// in any order and the result is independent of it. Runs in O(n) over the
// entry count. An empty scope yields an empty map, not an error.
func ComputeBalances(entries []Entry) map[string]float64 {
	balances := make(map[string]float64, len(entries))
	for _, e := range entries {
		balances[e.PayerID] += e.AmountDue
		balances[e.ParticipantID] -= e.AmountDue
	}
	return balances
}

// SortedBalances converts a balance map into a slice ordered by user id,
// dropping users already settled (within DefaultEpsilon of zero). The
// stable ordering keeps API responses and tests reproducible.
func SortedBalances(balances map[string]float64) []NetBalance {
	out := make([]NetBalance, 0, len(balances))
	for id, amt := range balances {
		if math.Abs(amt) <= DefaultEpsilon {
			continue
		}
		out = append(out, NetBalance{UserID: id, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// party is one side of an outstanding balance during settlement planning.
// amount is always the positive magnitude, for creditors and debtors alike.
type party struct {
	userID string
	amount float64
}

// partyHeap is a max-heap by remaining magnitude, ties broken by ascending
// user id so planning output is deterministic.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }
func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].userID < h[j].userID
}
func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }
func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// SettlementPlan derives the settle-up transfers that zero out a balance
// snapshot, greedily matching the creditor and debtor with the largest
// remaining magnitudes until both sides are exhausted.
//
// The greedy strategy does not guarantee the theoretical minimum number of
// transfers (optimal matching is NP-hard in general) but emits at most N-1
// transfers for N unsettled users, runs in O(N log N), and is fully
// deterministic: equal magnitudes are broken by ascending user id.
//
// Credits and debits of a closed scope must cancel out; if they disagree
// beyond tolerance the snapshot is corrupt and a ConservationError is
// returned with no partial plan. Residual dust below DefaultEpsilon is
// dropped.
func SettlementPlan(balances map[string]float64) ([]Transfer, error) {
	var creditors, debtors partyHeap
	var credit, debit float64
	for id, amt := range balances {
		switch {
		case amt > DefaultEpsilon:
			creditors = append(creditors, party{userID: id, amount: amt})
			credit += amt
		case amt < -DefaultEpsilon:
			debtors = append(debtors, party{userID: id, amount: -amt})
			debit -= amt
		}
	}

	// The tolerance scales with the credit mass so large ledgers are not
	// held to a stricter bound than the per-expense write-time check.
	if math.Abs(credit-debit) > DefaultEpsilon*math.Max(1, credit) {
		return nil, &ConservationError{Credit: credit, Debit: debit}
	}

	heap.Init(&creditors)
	heap.Init(&debtors)

	var plan []Transfer
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(&creditors).(party)
		d := heap.Pop(&debtors).(party)

		amount := math.Min(c.amount, d.amount)
		plan = append(plan, Transfer{FromUserID: d.userID, ToUserID: c.userID, Amount: amount})

		// Every iteration retires at least one party, bounding the plan
		// at N-1 transfers.
		c.amount -= amount
		d.amount -= amount
		if c.amount > DefaultEpsilon {
			heap.Push(&creditors, c)
		}
		if d.amount > DefaultEpsilon {
			heap.Push(&debtors, d)
		}
	}
	return plan, nil
}
