package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type SplitStatus string

const (
	SplitStatusUnpaid  SplitStatus = "unpaid"
	SplitStatusPending SplitStatus = "pending"
	SplitStatusPaid    SplitStatus = "paid"
)

// CanTransitionTo enforces the two-phase payment handshake: the payer claims
// (unpaid -> pending), then the receiver confirms (pending -> paid).
func (s SplitStatus) CanTransitionTo(next SplitStatus) bool {
	switch s {
	case SplitStatusUnpaid:
		return next == SplitStatusPending
	case SplitStatusPending:
		return next == SplitStatusPaid
	default:
		return false
	}
}

// Split is one member's share of an expense.
type Split struct {
	ID         string          `json:"_id"`
	ExpenseID  string          `json:"expense_id"`
	GroupID    string          `json:"group_id"`
	Title      string          `json:"title,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	AssignedTo string          `json:"assigned_to"`
	AssignedBy *string         `json:"assigned_by"`
	Status     SplitStatus     `json:"status"`
	PaidDate   *time.Time      `json:"paid_date,omitempty"`
}

func (s Split) GetID() string { return s.ID }

// IsSelfAssigned is true when no assigner is recorded.
func (s Split) IsSelfAssigned() bool {
	return s.AssignedBy == nil
}

// Receiver is the tenant owed the split amount. Self-assigned splits owe nobody else.
func (s Split) Receiver() string {
	if s.AssignedBy == nil {
		return s.AssignedTo
	}
	return *s.AssignedBy
}

// SumSplits totals split amounts without float rounding.
func SumSplits(splits []Split) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	return total
}
