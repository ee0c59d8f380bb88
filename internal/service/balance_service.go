package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// BalanceService runs the balance engine over a scope's ledger entries and
// returns net balances with a settlement plan.
type BalanceService struct {
	store storage.Store
}

func NewBalanceService(store storage.Store) *BalanceService {
	return &BalanceService{store: store}
}

type balancesResponse struct {
	Balances  []ledger.NetBalance `json:"balances"`
	Transfers []ledger.Transfer   `json:"transfers"`
}

// GroupBalances returns the group's net balances and settlement plan.
// Members only.
func (s *BalanceService) GroupBalances(c echo.Context) error {
	groupID := c.Param("gid")
	userID := middleware.UserID(c)

	ok, err := s.store.IsGroupMember(c.Request().Context(), groupID, userID)
	if err != nil {
		slog.Error("membership check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a group member")
	}

	entries, err := s.store.GroupEntries(c.Request().Context(), groupID)
	if err != nil {
		slog.Error("failed to load ledger entries", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return s.respond(c, entries)
}

// PersonalBalances returns the caller's net balances and settlement plan
// over their non-group expenses.
func (s *BalanceService) PersonalBalances(c echo.Context) error {
	userID := middleware.UserID(c)
	entries, err := s.store.PersonalEntries(c.Request().Context(), userID)
	if err != nil {
		slog.Error("failed to load ledger entries", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return s.respond(c, entries)
}

func (s *BalanceService) respond(c echo.Context, entries []ledger.Entry) error {
	balances := ledger.ComputeBalances(entries)
	balanceComputations.Inc()

	transfers, err := ledger.SettlementPlan(balances)
	if err != nil {
		var conservation *ledger.ConservationError
		if errors.As(err, &conservation) {
			slog.Error("balance conservation violated",
				"credit", conservation.Credit, "debit", conservation.Debit)
		} else {
			slog.Error("settlement planning failed", "error", err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	settlementTransfers.Add(float64(len(transfers)))

	sorted := ledger.SortedBalances(balances)
	if sorted == nil {
		sorted = []ledger.NetBalance{}
	}
	if transfers == nil {
		transfers = []ledger.Transfer{}
	}
	return c.JSON(http.StatusOK, balancesResponse{Balances: sorted, Transfers: transfers})
}
