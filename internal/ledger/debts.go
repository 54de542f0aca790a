package ledger

import (
	"context"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Debts returns all debts, settled ones included.
func (l *Ledger) Debts() []domain.Debt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Debt(nil), l.state.Debts...)
}

// AddDebt records a debt.
func (l *Ledger) AddDebt(ctx context.Context, d domain.Debt) (domain.Debt, error) {
	err := l.mutate(ctx, "add_debt", func() error {
		if d.ID == "" {
			d.ID = l.newID()
		} else if l.debtIndexLocked(d.ID) >= 0 {
			return invalid("debt", "id", "already exists")
		}
		d.Title = strings.TrimSpace(d.Title)
		if err := l.validateDebtLocked(d); err != nil {
			return err
		}
		l.state.Debts = append(l.state.Debts, d)
		return nil
	})
	if err != nil {
		return domain.Debt{}, err
	}
	return d, nil
}

// UpdateDebt replaces a debt by ID.
func (l *Ledger) UpdateDebt(ctx context.Context, d domain.Debt) (domain.Debt, error) {
	err := l.mutate(ctx, "update_debt", func() error {
		idx := l.debtIndexLocked(d.ID)
		if idx < 0 {
			return notFound("debt", d.ID)
		}
		d.Title = strings.TrimSpace(d.Title)
		if err := l.validateDebtLocked(d); err != nil {
			return err
		}
		l.state.Debts[idx] = d
		return nil
	})
	if err != nil {
		return domain.Debt{}, err
	}
	return d, nil
}

// SettleDebt marks a debt as settled or reopens it.
func (l *Ledger) SettleDebt(ctx context.Context, id string, settled bool) error {
	return l.mutate(ctx, "settle_debt", func() error {
		idx := l.debtIndexLocked(id)
		if idx < 0 {
			return notFound("debt", id)
		}
		l.state.Debts[idx].IsSettled = settled
		return nil
	})
}

// RemoveDebt deletes a debt.
func (l *Ledger) RemoveDebt(ctx context.Context, id string) error {
	return l.mutate(ctx, "remove_debt", func() error {
		idx := l.debtIndexLocked(id)
		if idx < 0 {
			return notFound("debt", id)
		}
		l.state.Debts = append(l.state.Debts[:idx], l.state.Debts[idx+1:]...)
		return nil
	})
}

func (l *Ledger) debtIndexLocked(id string) int {
	for i, d := range l.state.Debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Investments returns all manually valued holdings.
func (l *Ledger) Investments() []domain.Investment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Investment(nil), l.state.Investments...)
}

// AddInvestment records a holding.
func (l *Ledger) AddInvestment(ctx context.Context, inv domain.Investment) (domain.Investment, error) {
	err := l.mutate(ctx, "add_investment", func() error {
		if inv.ID == "" {
			inv.ID = l.newID()
		} else if l.investmentIndexLocked(inv.ID) >= 0 {
			return invalid("investment", "id", "already exists")
		}
		inv.Name = strings.TrimSpace(inv.Name)
		if inv.Name == "" {
			return invalid("investment", "name", "must not be empty")
		}
		l.state.Investments = append(l.state.Investments, inv)
		return nil
	})
	if err != nil {
		return domain.Investment{}, err
	}
	return inv, nil
}

// UpdateInvestment replaces a holding, typically with a new valuation.
func (l *Ledger) UpdateInvestment(ctx context.Context, inv domain.Investment) error {
	return l.mutate(ctx, "update_investment", func() error {
		idx := l.investmentIndexLocked(inv.ID)
		if idx < 0 {
			return notFound("investment", inv.ID)
		}
		inv.Name = strings.TrimSpace(inv.Name)
		if inv.Name == "" {
			return invalid("investment", "name", "must not be empty")
		}
		l.state.Investments[idx] = inv
		return nil
	})
}

// RemoveInvestment deletes a holding.
func (l *Ledger) RemoveInvestment(ctx context.Context, id string) error {
	return l.mutate(ctx, "remove_investment", func() error {
		idx := l.investmentIndexLocked(id)
		if idx < 0 {
			return notFound("investment", id)
		}
		l.state.Investments = append(l.state.Investments[:idx], l.state.Investments[idx+1:]...)
		return nil
	})
}

func (l *Ledger) investmentIndexLocked(id string) int {
	for i, inv := range l.state.Investments {
		if inv.ID == id {
			return i
		}
	}
	return -1
}
