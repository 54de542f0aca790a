package bigquery

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// NewBatch maps a ledger state and its derived summary into export rows.
func NewBatch(exportID string, exportedTS time.Time, state domain.State, summary ledger.Summary) *Batch {
	exportedTS = exportedTS.UTC()
	b := &Batch{ExportID: exportID, ExportedTS: exportedTS}

	categoryNames := make(map[string]string, len(state.Categories))
	for _, c := range state.Categories {
		categoryNames[c.ID] = c.Name
		b.Categories = append(b.Categories, &CategoryRow{
			ExportID:   exportID,
			ExportedTS: exportedTS,
			CategoryID: c.ID,
			Name:       c.Name,
			ColorHex:   colorHex(c.Color),
		})
	}

	for _, tx := range state.Transactions {
		row := &TransactionRow{
			ExportID:        exportID,
			ExportedTS:      exportedTS,
			TransactionID:   tx.ID,
			TransactionDate: civil.DateOf(tx.Date),
			Name:            tx.Name,
			Kind:            string(tx.Kind),
			Amount:          toRat(tx.Amount),
			AccountID:       nullString(tx.AccountID),
			FromAccountID:   nullString(tx.FromAccountID),
			ToAccountID:     nullString(tx.ToAccountID),
			FromPotID:       nullString(tx.FromPotID),
			ToPotID:         nullString(tx.ToPotID),
			CategoryID:      nullString(tx.CategoryID),
			Note:            nullString(tx.Note),
		}
		if tx.CategoryID != nil {
			if name, ok := categoryNames[*tx.CategoryID]; ok {
				row.CategoryName = bigquery.NullString{StringVal: name, Valid: true}
			}
		}
		b.Transactions = append(b.Transactions, row)
	}

	accounts := make(map[string]domain.Account, len(state.Accounts))
	for _, a := range state.Accounts {
		accounts[a.ID] = a
	}
	for _, s := range summary.Accounts {
		acc := accounts[s.AccountID]
		b.Balances = append(b.Balances, &AccountBalanceRow{
			ExportID:        exportID,
			ExportedTS:      exportedTS,
			AccountID:       s.AccountID,
			AccountName:     s.Name,
			AccountCategory: string(acc.Category),
			ParentAccountID: nullString(acc.ParentID),
			IsAvailable:     s.IsAvailable,
			IsPrimary:       acc.IsPrimary,
			Balance:         toRat(s.Balance),
			Saved:           toRat(s.Saved),
			Free:            toRat(s.Free),
		})
	}

	return b
}

func toRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func nullString(s *string) bigquery.NullString {
	if s == nil || *s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func colorHex(c domain.Color) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", channel(c.Red), channel(c.Green), channel(c.Blue), channel(c.Alpha))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

// AmountString renders the NUMERIC amount with two decimals.
func (r *TransactionRow) AmountString() string {
	if r.Amount == nil {
		return "0.00"
	}
	return r.Amount.FloatString(2)
}

// Party names the account side of a row: the account of income and expenses,
// "from -> to" for transfers, with the pot appended for pot transfers.
func (r *TransactionRow) Party() string {
	if r.AccountID.Valid {
		return r.AccountID.StringVal
	}
	from, to := r.FromAccountID.StringVal, r.ToAccountID.StringVal
	switch {
	case r.ToPotID.Valid:
		return from + " -> pot " + r.ToPotID.StringVal
	case r.FromPotID.Valid:
		return "pot " + r.FromPotID.StringVal + " -> " + to
	}
	return from + " -> " + to
}

func checkDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("checkDateRange: start and end dates are required")
	}
	if civil.DateOf(end).Before(civil.DateOf(start)) {
		return fmt.Errorf("checkDateRange: end date %s is before start date %s",
			civil.DateOf(end), civil.DateOf(start))
	}
	return nil
}
