package ledger

import (
	"context"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Accounts returns all accounts in insertion order.
func (l *Ledger) Accounts() []domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Account(nil), l.state.Accounts...)
}

// Account returns the account with the given ID.
func (l *Ledger) Account(id string) (domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accountLocked(id)
	if !ok {
		return domain.Account{}, notFound("account", id)
	}
	return acc, nil
}

// PrimaryAccount returns the primary account, if any.
func (l *Ledger) PrimaryAccount() (domain.Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, acc := range l.state.Accounts {
		if acc.IsPrimary {
			return acc, true
		}
	}
	return domain.Account{}, false
}

// SubAccounts returns the direct children of an account.
func (l *Ledger) SubAccounts(parentID string) []domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Account
	for _, acc := range l.state.Accounts {
		if domain.Is(acc.ParentID, parentID) {
			out = append(out, acc)
		}
	}
	return out
}

// Balance returns the derived balance of an account. Unknown accounts start
// from zero; orphaned transactions still count.
func (l *Ledger) Balance(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(accountID)
}

// GroupBalance is the balance of an account plus that of its direct sub-accounts.
func (l *Ledger) GroupBalance(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := l.balanceLocked(accountID)
	for _, acc := range l.state.Accounts {
		if domain.Is(acc.ParentID, accountID) {
			total = total.Add(Balance(acc, l.state.Transactions))
		}
	}
	return total
}

// AddAccount appends an account. Requesting IsPrimary routes through the
// same path as SetPrimary so there is never more than one primary.
func (l *Ledger) AddAccount(ctx context.Context, acc domain.Account) (domain.Account, error) {
	err := l.mutate(ctx, "add_account", func() error {
		if acc.ID == "" {
			acc.ID = l.newID()
		} else if _, exists := l.accountLocked(acc.ID); exists {
			return invalid("account", "id", "already exists")
		}
		acc.Name = strings.TrimSpace(acc.Name)
		if err := l.validateAccountLocked(acc); err != nil {
			return err
		}
		wantPrimary := acc.IsPrimary
		acc.IsPrimary = false
		l.state.Accounts = append(l.state.Accounts, acc)
		if wantPrimary {
			l.setPrimaryLocked(acc.ID)
			acc.IsPrimary = true
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

// UpdateAccount replaces an account by ID. The IsPrimary flag is not taken
// from acc; use SetPrimary to change it.
func (l *Ledger) UpdateAccount(ctx context.Context, acc domain.Account) (domain.Account, error) {
	err := l.mutate(ctx, "update_account", func() error {
		idx := l.accountIndexLocked(acc.ID)
		if idx < 0 {
			return notFound("account", acc.ID)
		}
		acc.Name = strings.TrimSpace(acc.Name)
		if err := l.validateAccountLocked(acc); err != nil {
			return err
		}
		acc.IsPrimary = l.state.Accounts[idx].IsPrimary
		l.state.Accounts[idx] = acc
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acc, nil
}

// RemoveAccount deletes an account, its direct sub-accounts and the pots
// owned by any of them. Transactions are kept as history.
func (l *Ledger) RemoveAccount(ctx context.Context, id string) error {
	return l.mutate(ctx, "remove_account", func() error {
		if l.accountIndexLocked(id) < 0 {
			return notFound("account", id)
		}
		removed := map[string]bool{id: true}
		for _, acc := range l.state.Accounts {
			if domain.Is(acc.ParentID, id) {
				removed[acc.ID] = true
			}
		}
		l.state.Accounts = filter(l.state.Accounts, func(a domain.Account) bool { return !removed[a.ID] })
		l.state.Pots = filter(l.state.Pots, func(p domain.SavingsPot) bool { return !removed[p.AccountID] })
		return nil
	})
}

// SetPrimary makes id the only primary account.
func (l *Ledger) SetPrimary(ctx context.Context, id string) error {
	return l.mutate(ctx, "set_primary", func() error {
		if l.accountIndexLocked(id) < 0 {
			return notFound("account", id)
		}
		l.setPrimaryLocked(id)
		return nil
	})
}

func (l *Ledger) setPrimaryLocked(id string) {
	for i := range l.state.Accounts {
		l.state.Accounts[i].IsPrimary = l.state.Accounts[i].ID == id
	}
}

func (l *Ledger) balanceLocked(accountID string) decimal.Decimal {
	acc, ok := l.accountLocked(accountID)
	if !ok {
		acc = domain.Account{ID: accountID}
	}
	return Balance(acc, l.state.Transactions)
}

func (l *Ledger) accountLocked(id string) (domain.Account, bool) {
	if idx := l.accountIndexLocked(id); idx >= 0 {
		return l.state.Accounts[idx], true
	}
	return domain.Account{}, false
}

func (l *Ledger) accountIndexLocked(id string) int {
	for i, acc := range l.state.Accounts {
		if acc.ID == id {
			return i
		}
	}
	return -1
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
