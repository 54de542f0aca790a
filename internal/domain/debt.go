package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtDirection says who owes whom.
type DebtDirection string

const (
	DebtIOwe     DebtDirection = "i_owe"
	DebtOwedToMe DebtDirection = "owed_to_me"
)

// Valid reports whether d is a known direction.
func (d DebtDirection) Valid() bool {
	return d == DebtIOwe || d == DebtOwedToMe
}

// Debt is tracked independently of the transaction log.
type Debt struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Direction DebtDirection   `json:"direction"`
	DueDate   *time.Time      `json:"dueDate,omitempty"`
	AccountID *string         `json:"accountID,omitempty"`
	Note      *string         `json:"note,omitempty"`
	IsSettled bool            `json:"isSettled"`
}

// Signed returns the debt's contribution to the net position:
// positive when owed to me, negative when I owe.
func (d Debt) Signed() decimal.Decimal {
	if d.Direction == DebtIOwe {
		return d.Amount.Neg()
	}
	return d.Amount
}

// Investment is a manually valued holding counted in the total value.
type Investment struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}
