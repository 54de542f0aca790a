package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of transaction kinds.
type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// Transaction is one entry of the append-only log.
//
// Expense amounts are negative, income amounts positive and transfer amounts
// positive; the direction of a transfer lives in FromAccountID/ToAccountID.
// A transfer with FromAccountID == ToAccountID moves money into (ToPotID) or
// out of (FromPotID) a savings pot of that account.
type Transaction struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Kind   TransactionKind `json:"kind"`

	AccountID     *string `json:"accountID,omitempty"`
	FromAccountID *string `json:"fromAccountID,omitempty"`
	ToAccountID   *string `json:"toAccountID,omitempty"`
	FromPotID     *string `json:"fromPotID,omitempty"`
	ToPotID       *string `json:"toPotID,omitempty"`

	Note       *string `json:"note,omitempty"`
	CategoryID *string `json:"categoryID,omitempty"`
}

// IsTransfer reports whether the transaction moves money between accounts or pots.
func (t Transaction) IsTransfer() bool {
	return t.Kind == KindTransfer
}

// IsPotTransfer reports whether the transfer only moves money within one account.
func (t Transaction) IsPotTransfer() bool {
	return t.IsTransfer() && (t.FromPotID != nil || t.ToPotID != nil)
}

// Touches reports whether the transaction contributes to the given account.
func (t Transaction) Touches(accountID string) bool {
	if t.IsTransfer() {
		return Is(t.FromAccountID, accountID) || Is(t.ToAccountID, accountID)
	}
	return Is(t.AccountID, accountID)
}
