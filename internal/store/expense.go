package store

import (
	"context"
	"encoding/json"

	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

func groupView(groupID string) string { return "group:" + groupID }

func (s *Store) GroupExpenses(groupID string) []types.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expenses.View(groupView(groupID))
}

func (s *Store) CurrentExpense() (types.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expenses.Current(viewCurrent)
}

func (s *Store) FetchGroupExpenses(ctx context.Context, groupID string) ([]types.Expense, error) {
	return run(ctx, s, SliceExpenses, effects.OpFetchGroupExpenses, func(ctx context.Context) (*types.Envelope[[]types.Expense], error) {
		return s.api.Expenses.ListForGroup(ctx, groupID)
	}, func(items []types.Expense) {
		s.expenses.ReplaceView(groupView(groupID), items)
	})
}

func (s *Store) FetchExpense(ctx context.Context, id string) (types.Expense, error) {
	return run(ctx, s, SliceExpenses, effects.OpFetchExpense, func(ctx context.Context) (*types.Envelope[types.Expense], error) {
		return s.api.Expenses.Get(ctx, id)
	}, func(e types.Expense) {
		s.expenses.SetCurrent(viewCurrent, e)
	})
}

// CreateExpense adds the expense to its group, then refreshes the split views
// so the server-derived splits appear. A failed refresh does not fail the
// create; it is reported on the splits slice.
func (s *Store) CreateExpense(ctx context.Context, req types.CreateExpenseRequest) (types.Expense, error) {
	e, err := run(ctx, s, SliceExpenses, effects.OpCreateExpense, func(ctx context.Context) (*types.Envelope[types.Expense], error) {
		return s.api.Expenses.Create(ctx, req)
	}, func(e types.Expense) {
		s.expenses.Prepend(groupView(e.GroupID), e)
	})
	if err != nil {
		return e, err
	}
	_ = s.RefreshSplits(ctx)
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, req types.UpdateExpenseRequest) (types.Expense, error) {
	return run(ctx, s, SliceExpenses, effects.OpUpdateExpense, func(ctx context.Context) (*types.Envelope[types.Expense], error) {
		return s.api.Expenses.Update(ctx, id, req)
	}, func(e types.Expense) {
		s.expenses.Upsert(e)
	})
}

// DeleteExpense removes the expense and every split derived from it.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	_, err := run(ctx, s, SliceExpenses, effects.OpDeleteExpense, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.Expenses.Delete(ctx, id)
	}, func(json.RawMessage) {
		s.expenses.Remove(id)
		s.splits.RemoveWhere(func(sp types.Split) bool { return sp.ExpenseID == id })
	})
	return err
}
