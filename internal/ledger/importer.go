package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/finance-ledger/internal/csvio"
	"github.com/dvloznov/finance-ledger/internal/domain"
)

// ImportResult reports what a CSV import did.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportCSV appends every valid statement row of r to accountID as income or
// expense, depending on the sign. Categories come from the memory first and
// then from the classifier, if one is configured. The batch is sorted and
// persisted once.
func (l *Ledger) ImportCSV(ctx context.Context, r io.Reader, accountID string) (ImportResult, error) {
	log := l.log.With().Str("account_id", accountID).Logger()

	if _, err := l.Account(accountID); err != nil {
		return ImportResult{}, fmt.Errorf("ImportCSV: %w", err)
	}

	parsed, err := csvio.Read(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("ImportCSV: %w", err)
	}
	res := ImportResult{Skipped: parsed.Skipped}

	guesses := l.classify(ctx, parsed.Rows)

	err = l.mutate(ctx, "import_csv", func() error {
		for _, row := range parsed.Rows {
			tx := domain.Transaction{
				Date:      row.Date,
				Name:      row.Name,
				Amount:    row.Amount,
				Kind:      domain.KindExpense,
				AccountID: domain.Ptr(accountID),
			}
			if row.Amount.IsPositive() {
				tx.Kind = domain.KindIncome
			}
			if id, ok := l.suggestLocked(row.Name); ok {
				tx.CategoryID = domain.Ptr(id)
			} else if id, ok := guesses[domain.NormalizeName(row.Name)]; ok && l.categoryExistsLocked(id) {
				tx.CategoryID = domain.Ptr(id)
			}
			if _, err := l.insertLocked(tx); err != nil {
				log.Debug().Err(err).Str("name", row.Name).Msg("Skipping statement row")
				res.Skipped++
				continue
			}
			res.Imported++
		}
		sortTransactions(l.state.Transactions)
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("ImportCSV: %w", err)
	}

	log.Info().
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("CSV import finished")
	return res, nil
}

// classify asks the classifier once per distinct name that the memory cannot
// answer. It runs without the lock; failures only cost the suggestion.
func (l *Ledger) classify(ctx context.Context, rows []csvio.Row) map[string]string {
	if l.classifier == nil {
		return nil
	}

	l.mu.Lock()
	categories := append([]domain.Category(nil), l.state.Categories...)
	var names []string
	seen := make(map[string]bool)
	for _, row := range rows {
		key := domain.NormalizeName(row.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := l.suggestLocked(row.Name); !ok {
			names = append(names, row.Name)
		}
	}
	l.mu.Unlock()

	guesses := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		id, ok, err := l.classifier.SuggestCategory(ctx, name, categories)
		if err != nil {
			l.log.Warn().Err(err).Str("name", name).Msg("Category classifier failed")
			continue
		}
		if ok {
			guesses[domain.NormalizeName(name)] = id
		}
	}
	return guesses
}

// ExportCSV writes the log in statement format. Transfers become two rows,
// negative on the source and positive on the destination account. With a
// non-empty accountFilter only rows booked on that account are written.
func (l *Ledger) ExportCSV(w io.Writer, accountFilter string) error {
	l.mu.Lock()
	rows := statementRows(l.state.Transactions, accountFilter)
	l.mu.Unlock()

	if err := csvio.Write(w, rows); err != nil {
		return fmt.Errorf("ExportCSV: %w", err)
	}
	return nil
}

func statementRows(txs []domain.Transaction, accountFilter string) []csvio.Row {
	keep := func(accountID *string) bool {
		return accountFilter == "" || domain.Is(accountID, accountFilter)
	}
	var rows []csvio.Row
	for _, tx := range txs {
		if !tx.IsTransfer() {
			if keep(tx.AccountID) {
				rows = append(rows, csvio.Row{Name: tx.Name, Date: tx.Date, Amount: tx.Amount})
			}
			continue
		}
		if keep(tx.FromAccountID) {
			rows = append(rows, csvio.Row{Name: tx.Name, Date: tx.Date, Amount: tx.Amount.Neg()})
		}
		if keep(tx.ToAccountID) {
			rows = append(rows, csvio.Row{Name: tx.Name, Date: tx.Date, Amount: tx.Amount})
		}
	}
	return rows
}
