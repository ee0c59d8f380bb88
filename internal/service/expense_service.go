package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/splitsmart/splitsmart/internal/ledger"
	"github.com/splitsmart/splitsmart/internal/middleware"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
)

// ExpenseService handles private and group expenses. The caller is always
// the payer of expenses they create; divisions are validated against the
// expense's scope before anything is written.
type ExpenseService struct {
	store storage.Store
}

func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

type shareRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Amount float64 `json:"amount"`
}

type expenseRequest struct {
	Description string  `json:"description" validate:"required,max=256"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`

	// Division lists explicit shares. When omitted, Participants names the
	// users to split the total equally among.
	Division     []shareRequest `json:"division" validate:"omitempty,dive"`
	Participants []string       `json:"participants" validate:"omitempty"`
}

// shares resolves the request into a division, expanding the equal-split
// shorthand when no explicit shares were given.
func (r *expenseRequest) shares() []ledger.Share {
	if len(r.Division) > 0 {
		division := make([]ledger.Share, len(r.Division))
		for i, s := range r.Division {
			division[i] = ledger.Share{UserID: s.UserID, Amount: s.Amount}
		}
		return division
	}
	return ledger.EqualShares(r.TotalAmount, r.Participants)
}

// friendMembership scopes a private expense to the payer and their friends.
// Lookup errors propagate so validation fails closed.
type friendMembership struct {
	store   storage.Store
	payerID string
}

func (m friendMembership) Contains(ctx context.Context, userID string) (bool, error) {
	if userID == m.payerID {
		return true, nil
	}
	return m.store.AreFriends(ctx, m.payerID, userID)
}

// groupMembership scopes a group expense to the group's member list.
type groupMembership struct {
	store   storage.Store
	groupID string
}

func (m groupMembership) Contains(ctx context.Context, userID string) (bool, error) {
	return m.store.IsGroupMember(ctx, m.groupID, userID)
}

// CreatePrivate records an expense between the caller and their friends.
func (s *ExpenseService) CreatePrivate(c echo.Context) error {
	return s.create(c, "")
}

// CreateGroup records an expense within a group. Members only.
func (s *ExpenseService) CreateGroup(c echo.Context) error {
	groupID := c.Param("gid")
	if err := s.requireGroupMember(c, groupID); err != nil {
		return err
	}
	return s.create(c, groupID)
}

func (s *ExpenseService) create(c echo.Context, groupID string) error {
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	payerID := middleware.UserID(c)
	division := req.shares()

	if err := ledger.ValidateDivision(ctx, req.TotalAmount, division, s.membership(groupID, payerID)); err != nil {
		return divisionError(err)
	}

	expense := &models.Expense{
		Description:    req.Description,
		TotalAmount:    req.TotalAmount,
		PayerID:        payerID,
		GroupID:        groupID,
		Participations: toParticipations(division),
	}
	if err := s.store.CreateExpense(ctx, expense, payerID); err != nil {
		slog.Error("failed to create expense", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	slog.Info("expense created", "expense_id", expense.ID, "payer_id", payerID,
		"group_id", groupID, "total", expense.TotalAmount)
	return c.JSON(http.StatusOK, expense)
}

// ListPrivate returns the caller's non-group expenses.
func (s *ExpenseService) ListPrivate(c echo.Context) error {
	expenses, err := s.store.ListPersonalExpenses(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		slog.Error("failed to list expenses", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	return c.JSON(http.StatusOK, expenses)
}

// ListGroup returns a group's expenses. Members only.
func (s *ExpenseService) ListGroup(c echo.Context) error {
	groupID := c.Param("gid")
	if err := s.requireGroupMember(c, groupID); err != nil {
		return err
	}

	expenses, err := s.store.ListGroupExpenses(c.Request().Context(), groupID)
	if err != nil {
		slog.Error("failed to list group expenses", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	return c.JSON(http.StatusOK, expenses)
}

// UpdatePrivate rewrites a private expense. Only its payer may do so.
func (s *ExpenseService) UpdatePrivate(c echo.Context) error {
	expense, err := s.loadExpense(c, c.Param("exid"), "")
	if err != nil {
		return err
	}
	if expense.PayerID != middleware.UserID(c) {
		return echo.NewHTTPError(http.StatusForbidden, "only the payer may modify this expense")
	}
	return s.update(c, expense)
}

// UpdateGroup rewrites a group expense. The payer or a group admin may do so.
func (s *ExpenseService) UpdateGroup(c echo.Context) error {
	groupID := c.Param("gid")
	expense, err := s.loadExpense(c, c.Param("exid"), groupID)
	if err != nil {
		return err
	}
	if err := s.requirePayerOrAdmin(c, expense); err != nil {
		return err
	}
	return s.update(c, expense)
}

func (s *ExpenseService) update(c echo.Context, expense *models.Expense) error {
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	actorID := middleware.UserID(c)
	division := req.shares()

	if err := ledger.ValidateDivision(ctx, req.TotalAmount, division, s.membership(expense.GroupID, expense.PayerID)); err != nil {
		return divisionError(err)
	}

	expense.Description = req.Description
	expense.TotalAmount = req.TotalAmount
	expense.Participations = toParticipations(division)
	if err := s.store.UpdateExpense(ctx, expense, actorID); err != nil {
		slog.Error("failed to update expense", "error", err, "expense_id", expense.ID)
		return notFoundOr(err, "expense not found")
	}

	slog.Info("expense updated", "expense_id", expense.ID, "actor_id", actorID)
	return c.JSON(http.StatusOK, expense)
}

// DeletePrivate removes a private expense. Only its payer may do so.
func (s *ExpenseService) DeletePrivate(c echo.Context) error {
	expense, err := s.loadExpense(c, c.Param("exid"), "")
	if err != nil {
		return err
	}
	actorID := middleware.UserID(c)
	if expense.PayerID != actorID {
		return echo.NewHTTPError(http.StatusForbidden, "only the payer may delete this expense")
	}
	return s.delete(c, expense, actorID)
}

// DeleteGroup removes a group expense. The payer or a group admin may do so.
func (s *ExpenseService) DeleteGroup(c echo.Context) error {
	groupID := c.Param("gid")
	expense, err := s.loadExpense(c, c.Param("exid"), groupID)
	if err != nil {
		return err
	}
	if err := s.requirePayerOrAdmin(c, expense); err != nil {
		return err
	}
	return s.delete(c, expense, middleware.UserID(c))
}

func (s *ExpenseService) delete(c echo.Context, expense *models.Expense, actorID string) error {
	if err := s.store.DeleteExpense(c.Request().Context(), expense.ID, actorID); err != nil {
		return notFoundOr(err, "expense not found")
	}
	slog.Info("expense deleted", "expense_id", expense.ID, "actor_id", actorID)
	return c.NoContent(http.StatusNoContent)
}

// loadExpense fetches an expense and checks it belongs to the expected
// scope. Expenses in another scope are reported as missing, not forbidden.
func (s *ExpenseService) loadExpense(c echo.Context, expenseID, groupID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(c.Request().Context(), expenseID)
	if err != nil {
		slog.Error("failed to load expense", "error", err, "expense_id", expenseID)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if expense == nil || expense.GroupID != groupID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "expense not found")
	}
	return expense, nil
}

func (s *ExpenseService) membership(groupID, payerID string) ledger.Membership {
	if groupID != "" {
		return groupMembership{store: s.store, groupID: groupID}
	}
	return friendMembership{store: s.store, payerID: payerID}
}

func (s *ExpenseService) requireGroupMember(c echo.Context, groupID string) error {
	ok, err := s.store.IsGroupMember(c.Request().Context(), groupID, middleware.UserID(c))
	if err != nil {
		slog.Error("membership check failed", "error", err, "group_id", groupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "not a group member")
	}
	return nil
}

func (s *ExpenseService) requirePayerOrAdmin(c echo.Context, expense *models.Expense) error {
	userID := middleware.UserID(c)
	if expense.PayerID == userID {
		return nil
	}
	isAdmin, err := s.store.IsGroupAdmin(c.Request().Context(), expense.GroupID, userID)
	if err != nil {
		slog.Error("admin check failed", "error", err, "group_id", expense.GroupID)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !isAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "only the payer or a group admin may modify this expense")
	}
	return nil
}

func toParticipations(division []ledger.Share) []models.Participation {
	participations := make([]models.Participation, len(division))
	for i, share := range division {
		participations[i] = models.Participation{UserID: share.UserID, AmountDue: share.Amount}
	}
	return participations
}
