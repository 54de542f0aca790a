package ledger

import (
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// AccountSummary is the derived view of one account.
type AccountSummary struct {
	AccountID   string          `json:"accountID"`
	Name        string          `json:"name"`
	IsAvailable bool            `json:"isAvailable"`
	Balance     decimal.Decimal `json:"balance"`
	Saved       decimal.Decimal `json:"saved"`
	Free        decimal.Decimal `json:"free"`
}

// Summary bundles the aggregate totals.
type Summary struct {
	Accounts     []AccountSummary `json:"accounts"`
	AvailableSum decimal.Decimal  `json:"availableSum"`
	NetOpenDebts decimal.Decimal  `json:"netOpenDebts"`
	TotalValue   decimal.Decimal  `json:"totalValue"`
}

// AvailableSum is the total balance of accounts flagged as available.
func (l *Ledger) AvailableSum() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableSumLocked()
}

// NetOpenDebts is what others owe me minus what I owe, over unsettled debts.
func (l *Ledger) NetOpenDebts() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.netOpenDebtsLocked()
}

// TotalValue is all account balances plus investments plus net open debts.
func (l *Ledger) TotalValue() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked()
}

// Summary computes every account's derived figures and the aggregate totals
// from one consistent view of the log.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Summary{
		Accounts:     make([]AccountSummary, 0, len(l.state.Accounts)),
		AvailableSum: l.availableSumLocked(),
		NetOpenDebts: l.netOpenDebtsLocked(),
		TotalValue:   l.totalValueLocked(),
	}
	for _, acc := range l.state.Accounts {
		balance := Balance(acc, l.state.Transactions)
		saved := l.totalSavedLocked(acc.ID)
		s.Accounts = append(s.Accounts, AccountSummary{
			AccountID:   acc.ID,
			Name:        acc.Name,
			IsAvailable: acc.IsAvailable,
			Balance:     balance,
			Saved:       saved,
			Free:        balance.Sub(saved),
		})
	}
	return s
}

func (l *Ledger) availableSumLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, acc := range l.state.Accounts {
		if acc.IsAvailable {
			sum = sum.Add(Balance(acc, l.state.Transactions))
		}
	}
	return sum
}

func (l *Ledger) netOpenDebtsLocked() decimal.Decimal {
	return NetOpenDebts(l.state.Debts)
}

func (l *Ledger) totalValueLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, acc := range l.state.Accounts {
		sum = sum.Add(Balance(acc, l.state.Transactions))
	}
	for _, inv := range l.state.Investments {
		sum = sum.Add(inv.Value)
	}
	return sum.Add(l.netOpenDebtsLocked())
}

// NetOpenDebts sums the signed amounts of unsettled debts.
func NetOpenDebts(debts []domain.Debt) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range debts {
		if !d.IsSettled {
			sum = sum.Add(d.Signed())
		}
	}
	return sum
}
