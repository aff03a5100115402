package testutil

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
	"github.com/shopspring/decimal"
)

func (b *Backend) findExpense(id string) (int, *types.Expense) {
	for i, e := range b.expenses {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (b *Backend) findSplit(id string) *types.Split {
	for _, s := range b.splits {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SplitsForExpense returns the server-side splits of one expense.
func (b *Backend) SplitsForExpense(expenseID string) []types.Split {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.Split
	for _, s := range b.splits {
		if s.ExpenseID == expenseID {
			out = append(out, *s)
		}
	}
	return out
}

// shareOut divides total evenly to the cent; the first share absorbs the
// remainder so the shares always sum to total.
func shareOut(total decimal.Decimal, n int) []decimal.Decimal {
	count := decimal.NewFromInt(int64(n))
	share := total.Div(count).Truncate(2)
	remainder := total.Sub(share.Mul(count))
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = share
	}
	out[0] = out[0].Add(remainder)
	return out
}

func (b *Backend) groupExpenses(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Expense{}
	for _, e := range b.expenses {
		if e.GroupID == c.Param("id") {
			out = append(out, *e)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) getExpense(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, e := b.findExpense(c.Param("id"))
	if e == nil {
		fail(c, http.StatusNotFound, "Expense not found")
		return
	}
	ok(c, http.StatusOK, "", *e)
}

func (b *Backend) createExpense(c *gin.Context) {
	var req types.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	fields := required([2]string{"title", req.Title}, [2]string{"group_id", req.GroupID})
	if !req.ReceiptTotal.IsPositive() {
		fields = append(fields, types.FieldError{Field: "receipt_total", Message: "Receipt total must be greater than zero"})
	}
	if len(req.SelectedRoommates) == 0 {
		fields = append(fields, types.FieldError{Field: "selected_roommates", Message: "Select at least one roommate"})
	}
	if len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}
	if req.Category == "" {
		req.Category = types.ExpenseCategoryOther
	}

	me := currentUser(c)
	b.mu.Lock()
	g := b.findGroup(req.GroupID)
	if g == nil || !g.HasMember(me) {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	e := &types.Expense{
		ID:           b.nextID("expense"),
		Title:        req.Title,
		Description:  req.Description,
		ReceiptTotal: req.ReceiptTotal,
		Category:     req.Category,
		CreatedBy:    me,
		GroupID:      g.ID,
		CreatedAt:    now(),
	}
	b.expenses = append(b.expenses, e)

	var pushed []pendingPush
	shares := shareOut(req.ReceiptTotal, len(req.SelectedRoommates))
	for i, roommate := range req.SelectedRoommates {
		s := &types.Split{
			ID:         b.nextID("split"),
			ExpenseID:  e.ID,
			GroupID:    g.ID,
			Title:      e.Title,
			Amount:     shares[i],
			AssignedTo: roommate,
			Status:     types.SplitStatusUnpaid,
		}
		if roommate == me {
			paid := now()
			s.Status = types.SplitStatusPaid
			s.PaidDate = &paid
		} else {
			by := me
			s.AssignedBy = &by
			pushed = append(pushed, b.notifyLocked(roommate, &me, types.NotificationExpenseAdded,
				fmt.Sprintf("New expense %s: you owe %s", e.Title, s.Amount.StringFixed(2)), &types.EntityRef{Kind: "expense", ID: e.ID}))
		}
		b.splits = append(b.splits, s)
	}
	out := *e
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusCreated, "Expense added", out)
}

func (b *Backend) updateExpense(c *gin.Context) {
	var req types.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, e := b.findExpense(c.Param("id"))
	if e == nil {
		fail(c, http.StatusNotFound, "Expense not found")
		return
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	ok(c, http.StatusOK, "Expense updated", *e)
}

func (b *Backend) deleteExpense(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, e := b.findExpense(c.Param("id"))
	if e == nil {
		fail(c, http.StatusNotFound, "Expense not found")
		return
	}
	if e.CreatedBy != currentUser(c) {
		fail(c, http.StatusForbidden, "Only the creator can delete this expense")
		return
	}
	b.expenses = append(b.expenses[:i], b.expenses[i+1:]...)
	splits := b.splits[:0]
	for _, s := range b.splits {
		if s.ExpenseID != e.ID {
			splits = append(splits, s)
		}
	}
	b.splits = splits
	ok(c, http.StatusOK, "Expense deleted", nil)
}

func (b *Backend) listSplits(c *gin.Context, match func(s *types.Split, me string) bool) {
	groupID := c.Query("group_id")
	me := currentUser(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Split{}
	for _, s := range b.splits {
		if groupID != "" && s.GroupID != groupID {
			continue
		}
		if match(s, me) {
			out = append(out, *s)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) splitsToPay(c *gin.Context) {
	b.listSplits(c, func(s *types.Split, me string) bool {
		return s.AssignedTo == me && s.AssignedBy != nil && s.Status != types.SplitStatusPaid
	})
}

func (b *Backend) splitsToReceive(c *gin.Context) {
	b.listSplits(c, func(s *types.Split, me string) bool {
		return s.AssignedBy != nil && *s.AssignedBy == me && s.Status != types.SplitStatusPaid
	})
}

func (b *Backend) splitHistory(c *gin.Context) {
	b.listSplits(c, func(s *types.Split, me string) bool {
		involved := s.AssignedTo == me || (s.AssignedBy != nil && *s.AssignedBy == me)
		return involved && s.Status == types.SplitStatusPaid
	})
}

func (b *Backend) markSplitPaid(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	s := b.findSplit(c.Param("id"))
	if s == nil {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Split not found")
		return
	}
	if s.AssignedTo != me {
		b.mu.Unlock()
		fail(c, http.StatusForbidden, "Only the payer can mark this split as paid")
		return
	}
	if !s.Status.CanTransitionTo(types.SplitStatusPending) {
		b.mu.Unlock()
		fail(c, http.StatusBadRequest, "Invalid status transition")
		return
	}
	s.Status = types.SplitStatusPending
	var pushed []pendingPush
	if s.AssignedBy != nil {
		pushed = append(pushed, b.notifyLocked(*s.AssignedBy, &me, types.NotificationPaymentClaimed,
			fmt.Sprintf("Payment of %s for %s is awaiting your confirmation", s.Amount.StringFixed(2), s.Title),
			&types.EntityRef{Kind: "split", ID: s.ID}))
	}
	out := *s
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusOK, "Payment marked as paid", out)
}

func (b *Backend) confirmSplit(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	s := b.findSplit(c.Param("id"))
	if s == nil {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Split not found")
		return
	}
	if s.AssignedBy == nil || *s.AssignedBy != me {
		b.mu.Unlock()
		fail(c, http.StatusForbidden, "Only the receiver can confirm this payment")
		return
	}
	if !s.Status.CanTransitionTo(types.SplitStatusPaid) {
		b.mu.Unlock()
		fail(c, http.StatusBadRequest, "Invalid status transition")
		return
	}
	paid := now()
	s.Status = types.SplitStatusPaid
	s.PaidDate = &paid
	pushed := []pendingPush{b.notifyLocked(s.AssignedTo, &me, types.NotificationPaymentConfirmed,
		fmt.Sprintf("Your payment for %s was confirmed", s.Title), &types.EntityRef{Kind: "split", ID: s.ID})}
	out := *s
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusOK, "Payment confirmed", out)
}
