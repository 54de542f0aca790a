package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

func newExportLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	n := 0
	l := ledger.New(
		ledger.WithClock(func() time.Time { return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC) }),
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	ctx := context.Background()

	acc, err := l.AddAccount(ctx, domain.Account{
		Name:           "Giro",
		Category:       domain.AccountChecking,
		InitialBalance: decimal.RequireFromString("100"),
		IsAvailable:    true,
		IsPrimary:      true,
	})
	if err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	food := l.Categories()[0]
	if _, err := l.InsertTransaction(ctx, domain.Transaction{
		Date:       time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
		Name:       "REWE",
		Amount:     decimal.RequireFromString("-12.34"),
		Kind:       domain.KindExpense,
		AccountID:  domain.Ptr(acc.ID),
		CategoryID: domain.Ptr(food.ID),
	}); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	pot, err := l.AddPot(ctx, domain.SavingsPot{AccountID: acc.ID, Name: "Holiday"})
	if err != nil {
		t.Fatalf("AddPot failed: %v", err)
	}
	if _, err := l.MoveToPot(ctx, acc.ID, pot.ID, decimal.RequireFromString("20")); err != nil {
		t.Fatalf("MoveToPot failed: %v", err)
	}
	return l
}

func TestNewBatch(t *testing.T) {
	l := newExportLedger(t)
	exportedAt := time.Date(2025, 10, 2, 8, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	state := l.State()
	b := NewBatch("exp-1", exportedAt, state, l.Summary())

	if b.ExportID != "exp-1" || !b.ExportedTS.Equal(exportedAt) || b.ExportedTS.Location() != time.UTC {
		t.Errorf("unexpected batch header: %q %v", b.ExportID, b.ExportedTS)
	}
	if len(b.Categories) != len(state.Categories) {
		t.Errorf("expected %d category rows, got %d", len(state.Categories), len(b.Categories))
	}
	if len(b.Transactions) != 2 {
		t.Fatalf("expected 2 transaction rows, got %d", len(b.Transactions))
	}

	var expense *TransactionRow
	for _, r := range b.Transactions {
		if r.Kind == string(domain.KindExpense) {
			expense = r
		}
	}
	if expense == nil {
		t.Fatal("expense row missing")
	}
	if expense.TransactionDate != (civil.Date{Year: 2025, Month: time.September, Day: 3}) {
		t.Errorf("TransactionDate = %v", expense.TransactionDate)
	}
	if expense.Amount.Cmp(big.NewRat(-1234, 100)) != 0 {
		t.Errorf("Amount = %v, want -12.34", expense.Amount.FloatString(2))
	}
	if !expense.CategoryName.Valid || expense.CategoryName.StringVal != l.Categories()[0].Name {
		t.Errorf("CategoryName = %+v", expense.CategoryName)
	}
	if expense.FromAccountID.Valid || expense.Note.Valid {
		t.Error("absent optional fields must be NULL")
	}

	if len(b.Balances) != 1 {
		t.Fatalf("expected 1 balance row, got %d", len(b.Balances))
	}
	bal := b.Balances[0]
	checks := []struct {
		name string
		got  *big.Rat
		want *big.Rat
	}{
		{"balance", bal.Balance, big.NewRat(8766, 100)},
		{"saved", bal.Saved, big.NewRat(20, 1)},
		{"free", bal.Free, big.NewRat(6766, 100)},
	}
	for _, c := range checks {
		if c.got.Cmp(c.want) != 0 {
			t.Errorf("%s = %s, want %s", c.name, c.got.FloatString(2), c.want.FloatString(2))
		}
	}
	if bal.AccountCategory != string(domain.AccountChecking) || !bal.IsPrimary || !bal.IsAvailable {
		t.Errorf("unexpected account attributes: %+v", bal)
	}
}

func TestColorHex(t *testing.T) {
	tests := []struct {
		c    domain.Color
		want string
	}{
		{domain.Color{Red: 1, Green: 0, Blue: 0, Alpha: 1}, "#FF0000FF"},
		{domain.Color{Red: 0.5, Green: 0.5, Blue: 0.5, Alpha: 0}, "#80808000"},
		{domain.Color{Red: 2, Green: -1, Blue: 0, Alpha: 1}, "#FF0000FF"},
	}

	for _, tt := range tests {
		if got := colorHex(tt.c); got != tt.want {
			t.Errorf("colorHex(%+v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestTransactionRow_Display(t *testing.T) {
	l := newExportLedger(t)
	b := NewBatch("exp-1", time.Now(), l.State(), l.Summary())
	acc := l.Accounts()[0]

	got := map[string][2]string{}
	for _, r := range b.Transactions {
		got[r.Kind] = [2]string{r.AmountString(), r.Party()}
	}
	if want := [2]string{"-12.34", acc.ID}; got[string(domain.KindExpense)] != want {
		t.Errorf("expense row = %v, want %v", got[string(domain.KindExpense)], want)
	}
	pot := l.Pots(acc.ID)[0]
	if want := [2]string{"20.00", acc.ID + " -> pot " + pot.ID}; got[string(domain.KindTransfer)] != want {
		t.Errorf("pot transfer row = %v, want %v", got[string(domain.KindTransfer)], want)
	}

	plain := &TransactionRow{
		FromAccountID: bigquery.NullString{StringVal: "a", Valid: true},
		ToAccountID:   bigquery.NullString{StringVal: "b", Valid: true},
	}
	if plain.Party() != "a -> b" || plain.AmountString() != "0.00" {
		t.Errorf("transfer row = %q %q", plain.Party(), plain.AmountString())
	}
}

func TestCheckDateRange(t *testing.T) {
	sep := func(d int) time.Time { return time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		name       string
		start, end time.Time
		wantErr    bool
	}{
		{"single day", sep(3), sep(3).Add(23 * time.Hour), false},
		{"month", sep(1), sep(30), false},
		{"reversed", sep(30), sep(1), true},
		{"missing start", time.Time{}, sep(1), true},
		{"missing end", sep(1), time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkDateRange(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
