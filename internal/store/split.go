package store

import (
	"context"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
	"github.com/shopspring/decimal"
)

const (
	viewToPay     = "toPay"
	viewToReceive = "toReceive"
	viewHistory   = "history"
)

// ToPay lists unsettled splits the user owes.
func (s *Store) ToPay() []types.Split {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splits.View(viewToPay)
}

// ToReceive lists unsettled splits owed to the user.
func (s *Store) ToReceive() []types.Split {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splits.View(viewToReceive)
}

// History lists settled splits.
func (s *Store) History() []types.Split {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splits.View(viewHistory)
}

func (s *Store) Split(id string) (types.Split, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splits.Get(id)
}

// SplitsForExpense returns every loaded split of one expense.
func (s *Store) SplitsForExpense(expenseID string) []types.Split {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.splits.Where(func(sp types.Split) bool { return sp.ExpenseID == expenseID })
}

// TotalOwed sums what the user still owes, pending confirmations included.
func (s *Store) TotalOwed() decimal.Decimal {
	return unsettled(s.ToPay())
}

// TotalOwedToMe sums what others still owe the user.
func (s *Store) TotalOwedToMe() decimal.Decimal {
	return unsettled(s.ToReceive())
}

func unsettled(splits []types.Split) decimal.Decimal {
	total := decimal.Zero
	for _, sp := range splits {
		if sp.Status != types.SplitStatusPaid {
			total = total.Add(sp.Amount)
		}
	}
	return total
}

func (s *Store) FetchToPay(ctx context.Context, groupID string) ([]types.Split, error) {
	return run(ctx, s, SliceSplits, effects.OpFetchToPay, func(ctx context.Context) (*types.Envelope[[]types.Split], error) {
		return s.api.Splits.ToPay(ctx, groupID)
	}, func(items []types.Split) {
		s.splits.ReplaceView(viewToPay, items)
	})
}

func (s *Store) FetchToReceive(ctx context.Context, groupID string) ([]types.Split, error) {
	return run(ctx, s, SliceSplits, effects.OpFetchToReceive, func(ctx context.Context) (*types.Envelope[[]types.Split], error) {
		return s.api.Splits.ToReceive(ctx, groupID)
	}, func(items []types.Split) {
		s.splits.ReplaceView(viewToReceive, items)
	})
}

func (s *Store) FetchHistory(ctx context.Context, groupID string) ([]types.Split, error) {
	return run(ctx, s, SliceSplits, effects.OpFetchHistory, func(ctx context.Context) (*types.Envelope[[]types.Split], error) {
		return s.api.Splits.History(ctx, groupID)
	}, func(items []types.Split) {
		s.splits.ReplaceView(viewHistory, items)
	})
}

type splitViews struct {
	toPay, toReceive, history []types.Split
}

// RefreshSplits reloads all three split views as one operation. No view
// changes unless all three requests succeed.
func (s *Store) RefreshSplits(ctx context.Context) error {
	_, err := run(ctx, s, SliceSplits, effects.OpRefreshSplits, func(ctx context.Context) (*types.Envelope[splitViews], error) {
		toPay, err := s.api.Splits.ToPay(ctx, "")
		if err != nil {
			return nil, err
		}
		toReceive, err := s.api.Splits.ToReceive(ctx, "")
		if err != nil {
			return nil, err
		}
		history, err := s.api.Splits.History(ctx, "")
		if err != nil {
			return nil, err
		}
		return &types.Envelope[splitViews]{
			Success: true,
			Data:    splitViews{toPay: toPay.Data, toReceive: toReceive.Data, history: history.Data},
		}, nil
	}, func(v splitViews) {
		s.splits.ReplaceView(viewToPay, v.toPay)
		s.splits.ReplaceView(viewToReceive, v.toReceive)
		s.splits.ReplaceView(viewHistory, v.history)
	})
	return err
}

// MarkSplitPaid is the payer's claim, unpaid -> pending.
func (s *Store) MarkSplitPaid(ctx context.Context, id string) (types.Split, error) {
	return s.transitionSplit(ctx, effects.OpMarkSplitPaid, id, types.SplitStatusPending,
		func(ctx context.Context) (*types.Envelope[types.Split], error) {
			return s.api.Splits.MarkPaid(ctx, id)
		})
}

// ConfirmSplitPaid is the receiver's confirmation, pending -> paid.
func (s *Store) ConfirmSplitPaid(ctx context.Context, id string) (types.Split, error) {
	return s.transitionSplit(ctx, effects.OpConfirmSplitPaid, id, types.SplitStatusPaid,
		func(ctx context.Context) (*types.Envelope[types.Split], error) {
			return s.api.Splits.ConfirmPaid(ctx, id)
		})
}

// transitionSplit checks the handshake locally, then stores whatever record
// the server returns.
func (s *Store) transitionSplit(ctx context.Context, op effects.Op, id string, next types.SplitStatus,
	call func(context.Context) (*types.Envelope[types.Split], error)) (types.Split, error) {

	s.mu.RLock()
	current, ok := s.splits.Get(id)
	s.mu.RUnlock()
	if !ok {
		return types.Split{}, s.reject(ctx, SliceSplits, op, apperrors.NotFound("Split", id))
	}
	if !current.Status.CanTransitionTo(next) {
		return types.Split{}, s.reject(ctx, SliceSplits, op,
			apperrors.InvalidStatusTransition(string(current.Status), string(next)))
	}

	return run(ctx, s, SliceSplits, op, call, func(sp types.Split) {
		s.splits.Upsert(sp)
		if sp.Status == types.SplitStatusPaid {
			s.splits.Prepend(viewHistory, sp)
			s.splits.RemoveFromView(viewToPay, sp.ID)
			s.splits.RemoveFromView(viewToReceive, sp.ID)
		}
	})
}
