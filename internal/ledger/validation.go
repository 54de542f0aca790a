package ledger

import (
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

func (l *Ledger) validateAccountLocked(acc domain.Account) error {
	if acc.Name == "" {
		return invalid("account", "name", "must not be empty")
	}
	if !acc.Category.Valid() {
		return invalid("account", "category", "is unknown")
	}
	if !acc.IsSubAccount() {
		return nil
	}
	parentID := *acc.ParentID
	if parentID == acc.ID {
		return invalid("account", "parentID", "must not reference itself")
	}
	parent, ok := l.accountLocked(parentID)
	if !ok {
		return invalid("account", "parentID", "references an unknown account")
	}
	if parent.IsSubAccount() {
		return invalid("account", "parentID", "references a sub-account")
	}
	for _, other := range l.state.Accounts {
		if domain.Is(other.ParentID, acc.ID) {
			return invalid("account", "parentID", "is not allowed on an account with sub-accounts")
		}
	}
	return nil
}

// validateTransactionLocked checks tx. stored is the version being replaced,
// nil on insert: account and pot references it already had are accepted even
// when the account or pot has been removed since.
func (l *Ledger) validateTransactionLocked(tx domain.Transaction, stored *domain.Transaction) error {
	kept := func(id *string, before func(domain.Transaction) *string) bool {
		return stored != nil && id != nil && domain.Is(before(*stored), *id)
	}
	accountOK := func(id *string, before func(domain.Transaction) *string) bool {
		return id != nil && (l.accountIndexLocked(*id) >= 0 || kept(id, before))
	}

	if strings.TrimSpace(tx.Name) == "" {
		return invalid("transaction", "name", "must not be empty")
	}
	if tx.Date.IsZero() {
		return invalid("transaction", "date", "must be set")
	}
	if tx.CategoryID != nil {
		if tx.IsTransfer() {
			return invalid("transaction", "categoryID", "is not allowed on transfers")
		}
		if !l.categoryExistsLocked(*tx.CategoryID) {
			return invalid("transaction", "categoryID", "references an unknown category")
		}
	}

	switch tx.Kind {
	case domain.KindIncome, domain.KindExpense:
		if tx.Kind == domain.KindIncome && !tx.Amount.IsPositive() {
			return invalid("transaction", "amount", "must be positive for income")
		}
		if tx.Kind == domain.KindExpense && !tx.Amount.IsNegative() {
			return invalid("transaction", "amount", "must be negative for expenses")
		}
		if tx.FromAccountID != nil || tx.ToAccountID != nil || tx.FromPotID != nil || tx.ToPotID != nil {
			return invalid("transaction", "kind", "income and expenses must not carry transfer references")
		}
		if !accountOK(tx.AccountID, func(t domain.Transaction) *string { return t.AccountID }) {
			return invalid("transaction", "accountID", "references an unknown account")
		}
		return nil

	case domain.KindTransfer:
		if !tx.Amount.IsPositive() {
			return invalid("transaction", "amount", "must be positive for transfers")
		}
		if tx.AccountID != nil {
			return invalid("transaction", "accountID", "is not used by transfers")
		}
		if !accountOK(tx.FromAccountID, func(t domain.Transaction) *string { return t.FromAccountID }) {
			return invalid("transaction", "fromAccountID", "references an unknown account")
		}
		if !accountOK(tx.ToAccountID, func(t domain.Transaction) *string { return t.ToAccountID }) {
			return invalid("transaction", "toAccountID", "references an unknown account")
		}
		sameAccount := *tx.FromAccountID == *tx.ToAccountID
		if !tx.IsPotTransfer() {
			if sameAccount {
				return invalid("transaction", "toAccountID", "must differ from fromAccountID")
			}
			return nil
		}
		if !sameAccount {
			return invalid("transaction", "toAccountID", "must equal fromAccountID for pot transfers")
		}
		refs := []struct {
			field  string
			id     *string
			before func(domain.Transaction) *string
		}{
			{"fromPotID", tx.FromPotID, func(t domain.Transaction) *string { return t.FromPotID }},
			{"toPotID", tx.ToPotID, func(t domain.Transaction) *string { return t.ToPotID }},
		}
		for _, ref := range refs {
			if ref.id == nil {
				continue
			}
			pot, ok := l.potLocked(*ref.id)
			if !ok && kept(ref.id, ref.before) {
				continue
			}
			if !ok {
				return invalid("transaction", ref.field, "references an unknown pot")
			}
			if pot.AccountID != *tx.FromAccountID {
				return invalid("transaction", ref.field, "references a pot of another account")
			}
		}
		return nil
	}
	return invalid("transaction", "kind", "is unknown")
}

func validatePot(p domain.SavingsPot) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("pot", "name", "must not be empty")
	}
	if p.Goal.IsNegative() {
		return invalid("pot", "goal", "must not be negative")
	}
	return nil
}

func (l *Ledger) validateDebtLocked(d domain.Debt) error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("debt", "title", "must not be empty")
	}
	if !d.Amount.IsPositive() {
		return invalid("debt", "amount", "must be positive")
	}
	if !d.Direction.Valid() {
		return invalid("debt", "direction", "is unknown")
	}
	if d.AccountID != nil && l.accountIndexLocked(*d.AccountID) < 0 {
		return invalid("debt", "accountID", "references an unknown account")
	}
	return nil
}

func validateCategory(c domain.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("category", "name", "must not be empty")
	}
	for _, v := range []float64{c.Color.Red, c.Color.Green, c.Color.Blue, c.Color.Alpha} {
		if v < 0 || v > 1 {
			return invalid("category", "color", "components must be within [0, 1]")
		}
	}
	return nil
}
