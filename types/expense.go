package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	ExpenseCategoryRent        ExpenseCategory = "rent"
	ExpenseCategoryUtilities   ExpenseCategory = "utilities"
	ExpenseCategoryGroceries   ExpenseCategory = "groceries"
	ExpenseCategoryInternet    ExpenseCategory = "internet"
	ExpenseCategoryCleaning    ExpenseCategory = "cleaning"
	ExpenseCategoryMaintenance ExpenseCategory = "maintenance"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

// Expense is a shared household cost. Its splits are server-computed and are
// expected to sum to ReceiptTotal.
type Expense struct {
	ID           string          `json:"_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	ReceiptTotal decimal.Decimal `json:"receipt_total"`
	Category     ExpenseCategory `json:"category"`
	CreatedBy    string          `json:"created_by"`
	GroupID      string          `json:"group_id"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
}

func (e Expense) GetID() string { return e.ID }

type CreateExpenseRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	ReceiptTotal      decimal.Decimal `json:"receipt_total"`
	Category          ExpenseCategory `json:"category"`
	GroupID           string          `json:"group_id"`
	SelectedRoommates []string        `json:"selected_roommates"`
}

type UpdateExpenseRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *ExpenseCategory `json:"category,omitempty"`
}
