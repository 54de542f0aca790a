package ledger

import (
	"slices"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Balance derives an account's current balance from its initial balance and
// every transaction in txs. Income and expenses count when they reference the
// account; transfers subtract on the source side and add on the destination
// side, so a pot transfer (source == destination) leaves the total unchanged.
func Balance(acc domain.Account, txs []domain.Transaction) decimal.Decimal {
	return acc.InitialBalance.Add(contributions(acc.ID, txs))
}

func contributions(accountID string, txs []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		switch tx.Kind {
		case domain.KindIncome, domain.KindExpense:
			if domain.Is(tx.AccountID, accountID) {
				sum = sum.Add(tx.Amount)
			}
		case domain.KindTransfer:
			if domain.Is(tx.FromAccountID, accountID) {
				sum = sum.Sub(tx.Amount)
			}
			if domain.Is(tx.ToAccountID, accountID) {
				sum = sum.Add(tx.Amount)
			}
		}
	}
	return sum
}

// SavedAmount derives how much is held in a pot: deposits minus withdrawals,
// clamped at zero.
func SavedAmount(potID string, txs []domain.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Kind != domain.KindTransfer {
			continue
		}
		if domain.Is(tx.ToPotID, potID) {
			sum = sum.Add(tx.Amount)
		}
		if domain.Is(tx.FromPotID, potID) {
			sum = sum.Sub(tx.Amount)
		}
	}
	if sum.IsNegative() {
		return decimal.Zero
	}
	return sum
}

// goalCrossed is the edge trigger for goal notifications.
func goalCrossed(goal, before, after decimal.Decimal) bool {
	return goal.IsPositive() && before.LessThan(goal) && after.GreaterThanOrEqual(goal)
}

// sortTransactions orders the log newest first. The sort is stable, so among
// equal dates the transaction inserted last stays in front.
func sortTransactions(txs []domain.Transaction) {
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		return b.Date.Compare(a.Date)
	})
}
