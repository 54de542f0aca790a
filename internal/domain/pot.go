package domain

import "github.com/shopspring/decimal"

// SavingsPot earmarks part of an account's balance for a goal.
// It has no stored balance: the saved amount is derived from transfers
// carrying the pot's ID.
type SavingsPot struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountID"`
	Name      string          `json:"name"`
	Goal      decimal.Decimal `json:"goal"` // zero means "no target"
	Note      *string         `json:"note,omitempty"`
}

// HasGoal reports whether the pot has a target amount.
func (p SavingsPot) HasGoal() bool {
	return p.Goal.IsPositive()
}
