package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Pots returns the savings pots of an account ordered by name.
func (l *Ledger) Pots(accountID string) []domain.SavingsPot {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.SavingsPot
	for _, p := range l.state.Pots {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.SavingsPot) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// Pot returns a pot by ID.
func (l *Ledger) Pot(id string) (domain.SavingsPot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.potLocked(id)
	if !ok {
		return domain.SavingsPot{}, notFound("pot", id)
	}
	return p, nil
}

// SavedAmount returns the money currently held in a pot (never negative).
func (l *Ledger) SavedAmount(potID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return SavedAmount(potID, l.state.Transactions)
}

// TotalSavedInPots sums the saved amounts of all pots of an account.
func (l *Ledger) TotalSavedInPots(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSavedLocked(accountID)
}

// FreeBalance is the part of an account's balance not allocated to pots.
func (l *Ledger) FreeBalance(accountID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(accountID).Sub(l.totalSavedLocked(accountID))
}

// Progress returns saved/goal capped at 1. ok is false for pots without a goal.
func (l *Ledger) Progress(potID string) (progress decimal.Decimal, ok bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, found := l.potLocked(potID)
	if !found {
		return decimal.Zero, false, notFound("pot", potID)
	}
	if !p.HasGoal() {
		return decimal.Zero, false, nil
	}
	ratio := SavedAmount(potID, l.state.Transactions).Div(p.Goal)
	return decimal.Min(ratio, decimal.NewFromInt(1)), true, nil
}

// AddPot creates a savings pot on an existing account.
func (l *Ledger) AddPot(ctx context.Context, p domain.SavingsPot) (domain.SavingsPot, error) {
	err := l.mutate(ctx, "add_pot", func() error {
		if p.ID == "" {
			p.ID = l.newID()
		} else if _, exists := l.potLocked(p.ID); exists {
			return invalid("pot", "id", "already exists")
		}
		p.Name = strings.TrimSpace(p.Name)
		if err := validatePot(p); err != nil {
			return err
		}
		if l.accountIndexLocked(p.AccountID) < 0 {
			return invalid("pot", "accountID", "references an unknown account")
		}
		l.state.Pots = append(l.state.Pots, p)
		return nil
	})
	if err != nil {
		return domain.SavingsPot{}, err
	}
	return p, nil
}

// UpdatePot replaces a pot's name, goal and note. Pots cannot move between accounts.
func (l *Ledger) UpdatePot(ctx context.Context, p domain.SavingsPot) (domain.SavingsPot, error) {
	err := l.mutate(ctx, "update_pot", func() error {
		idx := l.potIndexLocked(p.ID)
		if idx < 0 {
			return notFound("pot", p.ID)
		}
		p.Name = strings.TrimSpace(p.Name)
		if err := validatePot(p); err != nil {
			return err
		}
		if p.AccountID != l.state.Pots[idx].AccountID {
			return invalid("pot", "accountID", "cannot be changed")
		}
		l.state.Pots[idx] = p
		return nil
	})
	if err != nil {
		return domain.SavingsPot{}, err
	}
	return p, nil
}

// RemovePot deletes a pot. Its transfers stay in the log.
func (l *Ledger) RemovePot(ctx context.Context, id string) error {
	return l.mutate(ctx, "remove_pot", func() error {
		idx := l.potIndexLocked(id)
		if idx < 0 {
			return notFound("pot", id)
		}
		l.state.Pots = append(l.state.Pots[:idx], l.state.Pots[idx+1:]...)
		return nil
	})
}

// MoveToPot earmarks amount of the account's free balance for a pot by
// inserting a pot transfer.
func (l *Ledger) MoveToPot(ctx context.Context, accountID, potID string, amount decimal.Decimal) (domain.Transaction, error) {
	return l.movePot(ctx, accountID, potID, amount, true)
}

// MoveFromPot releases amount from a pot back to the account's free balance.
func (l *Ledger) MoveFromPot(ctx context.Context, accountID, potID string, amount decimal.Decimal) (domain.Transaction, error) {
	return l.movePot(ctx, accountID, potID, amount, false)
}

func (l *Ledger) movePot(ctx context.Context, accountID, potID string, amount decimal.Decimal, deposit bool) (domain.Transaction, error) {
	var tx domain.Transaction
	err := l.mutate(ctx, "move_pot", func() error {
		if !amount.IsPositive() {
			return invalid("pot transfer", "amount", "must be positive")
		}
		if l.accountIndexLocked(accountID) < 0 {
			return notFound("account", accountID)
		}
		pot, ok := l.potLocked(potID)
		if !ok {
			return notFound("pot", potID)
		}
		if pot.AccountID != accountID {
			return invalid("pot transfer", "potID", "belongs to another account")
		}

		tx = domain.Transaction{
			Date:          l.now(),
			Name:          "Pot: " + pot.Name,
			Amount:        amount,
			Kind:          domain.KindTransfer,
			FromAccountID: domain.Ptr(accountID),
			ToAccountID:   domain.Ptr(accountID),
		}
		if deposit {
			free := l.balanceLocked(accountID).Sub(l.totalSavedLocked(accountID))
			if amount.GreaterThan(free) {
				return insufficient("pot transfer", "exceeds the free balance")
			}
			tx.ToPotID = domain.Ptr(potID)
		} else {
			if amount.GreaterThan(SavedAmount(potID, l.state.Transactions)) {
				return insufficient("pot transfer", "exceeds the saved amount")
			}
			tx.FromPotID = domain.Ptr(potID)
		}

		inserted, err := l.insertLocked(tx)
		if err != nil {
			return err
		}
		tx = inserted
		sortTransactions(l.state.Transactions)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (l *Ledger) totalSavedLocked(accountID string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.state.Pots {
		if p.AccountID == accountID {
			total = total.Add(SavedAmount(p.ID, l.state.Transactions))
		}
	}
	return total
}

func (l *Ledger) potLocked(id string) (domain.SavingsPot, bool) {
	if idx := l.potIndexLocked(id); idx >= 0 {
		return l.state.Pots[idx], true
	}
	return domain.SavingsPot{}, false
}

func (l *Ledger) potIndexLocked(id string) int {
	for i, p := range l.state.Pots {
		if p.ID == id {
			return i
		}
	}
	return -1
}
