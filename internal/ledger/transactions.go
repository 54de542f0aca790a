package ledger

import (
	"context"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// UpdateResult tells the caller whether an edit changed the category, which
// is the cue for offering a bulk re-categorization of older transactions.
type UpdateResult struct {
	CategoryChanged    bool
	PreviousCategoryID *string
}

// Transactions returns the log, newest first.
func (l *Ledger) Transactions() []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Transaction(nil), l.state.Transactions...)
}

// TransactionsForAccount returns the transactions touching an account, newest first.
func (l *Ledger) TransactionsForAccount(accountID string) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range l.state.Transactions {
		if tx.Touches(accountID) {
			out = append(out, tx)
		}
	}
	return out
}

// Transaction returns a single transaction by ID.
func (l *Ledger) Transaction(id string) (domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.transactionIndexLocked(id); idx >= 0 {
		return l.state.Transactions[idx], nil
	}
	return domain.Transaction{}, notFound("transaction", id)
}

// InsertTransaction validates and adds a transaction. Uncategorized income
// and expenses get the remembered category for their name; a set category is
// learned. Transfers into or out of pots may raise a GoalReached event.
func (l *Ledger) InsertTransaction(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	err := l.mutate(ctx, "insert_transaction", func() error {
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

// UpdateTransaction replaces a transaction by ID and re-learns its category.
func (l *Ledger) UpdateTransaction(ctx context.Context, tx domain.Transaction) (UpdateResult, error) {
	var res UpdateResult
	err := l.mutate(ctx, "update_transaction", func() error {
		idx := l.transactionIndexLocked(tx.ID)
		if idx < 0 {
			return notFound("transaction", tx.ID)
		}
		tx.Name = strings.TrimSpace(tx.Name)
		stored := l.state.Transactions[idx]
		if err := l.validateTransactionLocked(tx, &stored); err != nil {
			return err
		}
		prev := l.state.Transactions[idx].CategoryID
		res = UpdateResult{
			CategoryChanged:    domain.Value(prev) != domain.Value(tx.CategoryID),
			PreviousCategoryID: prev,
		}
		l.state.Transactions[idx] = tx
		sortTransactions(l.state.Transactions)
		if !tx.IsTransfer() && tx.CategoryID != nil {
			l.learnLocked(tx.Name, *tx.CategoryID)
		}
		return nil
	})
	return res, err
}

// DeleteTransaction removes a transaction. Derived values such as a pot's
// saved amount change accordingly on the next read.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	return l.mutate(ctx, "delete_transaction", func() error {
		idx := l.transactionIndexLocked(id)
		if idx < 0 {
			return notFound("transaction", id)
		}
		l.state.Transactions = append(l.state.Transactions[:idx], l.state.Transactions[idx+1:]...)
		return nil
	})
}

// insertLocked puts tx at the head of the log without re-sorting.
func (l *Ledger) insertLocked(tx domain.Transaction) (domain.Transaction, error) {
	if tx.ID == "" {
		tx.ID = l.newID()
	} else if l.transactionIndexLocked(tx.ID) >= 0 {
		return domain.Transaction{}, invalid("transaction", "id", "already exists")
	}
	tx.Name = strings.TrimSpace(tx.Name)
	if !tx.IsTransfer() && tx.CategoryID == nil {
		if id, ok := l.suggestLocked(tx.Name); ok {
			tx.CategoryID = domain.Ptr(id)
		}
	}
	if err := l.validateTransactionLocked(tx, nil); err != nil {
		return domain.Transaction{}, err
	}

	potIDs := touchedPots(tx)
	before := make([]decimal.Decimal, len(potIDs))
	for i, potID := range potIDs {
		before[i] = SavedAmount(potID, l.state.Transactions)
	}

	l.state.Transactions = append([]domain.Transaction{tx}, l.state.Transactions...)
	if !tx.IsTransfer() && tx.CategoryID != nil {
		l.learnLocked(tx.Name, *tx.CategoryID)
	}

	for i, potID := range potIDs {
		pot, ok := l.potLocked(potID)
		if !ok {
			continue
		}
		after := SavedAmount(potID, l.state.Transactions)
		if goalCrossed(pot.Goal, before[i], after) {
			l.pending = append(l.pending, GoalReached{
				PotID:     pot.ID,
				PotName:   pot.Name,
				AccountID: pot.AccountID,
				Goal:      pot.Goal,
				Saved:     after,
			})
		}
	}
	return tx, nil
}

func (l *Ledger) transactionIndexLocked(id string) int {
	for i, tx := range l.state.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func touchedPots(tx domain.Transaction) []string {
	var ids []string
	if tx.ToPotID != nil {
		ids = append(ids, *tx.ToPotID)
	}
	if tx.FromPotID != nil && !domain.Is(tx.ToPotID, *tx.FromPotID) {
		ids = append(ids, *tx.FromPotID)
	}
	return ids
}
