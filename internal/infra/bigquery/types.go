package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Table names inside the configured dataset.
const (
	TransactionsTable    = "ledger_transactions"
	AccountBalancesTable = "ledger_account_balances"
	CategoriesTable      = "ledger_categories"
)

// Exporter pushes ledger snapshots to an analytics warehouse. Every export is
// appended under its own export_id, so the tables keep the full history.
type Exporter interface {
	// EnsureTables creates the dataset and the export tables if missing.
	EnsureTables(ctx context.Context) error

	// Export appends one batch.
	Export(ctx context.Context, batch *Batch) error

	// QueryTransactionsByDateRange returns transactions of the latest export
	// dated within [startDate, endDate].
	QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error)
}

// Batch is everything written by one export.
type Batch struct {
	ExportID     string
	ExportedTS   time.Time
	Transactions []*TransactionRow
	Balances     []*AccountBalanceRow
	Categories   []*CategoryRow
}

// TransactionRow is one ledger transaction as stored in BigQuery.
type TransactionRow struct {
	ExportID   string    `bigquery:"export_id"`   // REQUIRED
	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED

	TransactionID   string     `bigquery:"transaction_id"`   // REQUIRED
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Name            string     `bigquery:"name"`             // REQUIRED
	Kind            string     `bigquery:"kind"`             // income | expense | transfer
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, signed as stored

	AccountID     bigquery.NullString `bigquery:"account_id"`
	FromAccountID bigquery.NullString `bigquery:"from_account_id"`
	ToAccountID   bigquery.NullString `bigquery:"to_account_id"`
	FromPotID     bigquery.NullString `bigquery:"from_pot_id"`
	ToPotID       bigquery.NullString `bigquery:"to_pot_id"`

	CategoryID   bigquery.NullString `bigquery:"category_id"`
	CategoryName bigquery.NullString `bigquery:"category_name"`
	Note         bigquery.NullString `bigquery:"note"`
}

// AccountBalanceRow is the derived state of one account at export time.
type AccountBalanceRow struct {
	ExportID   string    `bigquery:"export_id"`
	ExportedTS time.Time `bigquery:"exported_ts"`

	AccountID       string              `bigquery:"account_id"`
	AccountName     string              `bigquery:"account_name"`
	AccountCategory string              `bigquery:"account_category"`
	ParentAccountID bigquery.NullString `bigquery:"parent_account_id"`
	IsAvailable     bool                `bigquery:"is_available"`
	IsPrimary       bool                `bigquery:"is_primary"`

	Balance *big.Rat `bigquery:"balance"`
	Saved   *big.Rat `bigquery:"saved"`
	Free    *big.Rat `bigquery:"free"`
}

// CategoryRow is one category at export time.
type CategoryRow struct {
	ExportID   string    `bigquery:"export_id"`
	ExportedTS time.Time `bigquery:"exported_ts"`

	CategoryID string `bigquery:"category_id"`
	Name       string `bigquery:"name"`
	ColorHex   string `bigquery:"color_hex"` // #RRGGBBAA
}
