package domain

import (
	"github.com/shopspring/decimal"
)

// AccountCategory is the closed set of account kinds.
type AccountCategory string

const (
	AccountChecking        AccountCategory = "checking"
	AccountCallMoney       AccountCategory = "call_money"
	AccountFixedDeposit    AccountCategory = "fixed_deposit"
	AccountOtherInvestment AccountCategory = "other_investment"
)

// Valid reports whether c is one of the known account categories.
func (c AccountCategory) Valid() bool {
	switch c {
	case AccountChecking, AccountCallMoney, AccountFixedDeposit, AccountOtherInvestment:
		return true
	}
	return false
}

// Account is a named money container. Its current balance is never stored;
// it is derived from InitialBalance and the transaction log.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       AccountCategory `json:"category"`
	InitialBalance decimal.Decimal `json:"initialBalance"`

	// IsAvailable marks liquid money that counts towards the available sum.
	IsAvailable bool `json:"isAvailable"`

	// IsPrimary is the default account for quick entry. At most one account
	// carries it; only the ledger's SetPrimary changes it.
	IsPrimary bool `json:"isPrimary"`

	// ParentID groups a sub-account under its parent (one level deep).
	ParentID *string `json:"parentID,omitempty"`
}

// IsSubAccount reports whether the account has a parent.
func (a Account) IsSubAccount() bool {
	return a.ParentID != nil && *a.ParentID != ""
}
