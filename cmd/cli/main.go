package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/config"
	infraBQ "github.com/dvloznov/finance-ledger/internal/infra/bigquery"
	"github.com/dvloznov/finance-ledger/internal/infra/sqlite"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/persist"
	"github.com/dvloznov/finance-ledger/internal/snapshot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import-csv":
		runImportCSV()
	case "export-csv":
		runExportCSV()
	case "import-json":
		runImportJSON()
	case "export-json":
		runExportJSON()
	case "summary":
		runSummary()
	case "snapshots":
		runSnapshots()
	case "push-bigquery":
		runPushBigQuery()
	case "bq-transactions":
		runBQTransactions()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import-csv       Import a bank statement CSV into an account")
	fmt.Println("  export-csv       Export transactions as CSV")
	fmt.Println("  import-json      Replace the ledger with a JSON bundle")
	fmt.Println("  export-json      Write the ledger as a JSON bundle")
	fmt.Println("  summary          Print balances and totals")
	fmt.Println("  snapshots        List or restore SQLite snapshot history")
	fmt.Println("  push-bigquery    Append the current ledger to BigQuery")
	fmt.Println("  bq-transactions  List transactions of the latest BigQuery export by date")
	fmt.Println("  help             Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env is what every command needs: configuration, logging and the stored
// ledger, persisted synchronously.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	ctx    context.Context
	stores *app.Stores
	ledger *ledger.Ledger
}

// newFlagSet returns a flag set carrying the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("LEDGER_CONFIG"), "Path to the YAML config file (or set LEDGER_CONFIG env)")
	return fs, configPath
}

func setup(ctx context.Context, configPath string) *env {
	bootLog := logger.New()
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log, err := logger.NewWithLevel(cfg.Log.Level)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid log level")
	}
	ctx = logger.WithContext(ctx, log)

	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshot storage")
	}
	l, err := app.LoadLedger(ctx, stores, log,
		ledger.WithPersister(persist.NewSyncPersister(stores, log)),
		ledger.WithGoalReachedHandler(app.LogGoalReached(log)),
	)
	if err != nil {
		stores.Close()
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}
	return &env{cfg: cfg, log: log, ctx: ctx, stores: stores, ledger: l}
}

func (e *env) close() {
	if err := e.stores.Close(); err != nil {
		e.log.Warn().Err(err).Msg("Failed to close snapshot storage")
	}
}

// output opens path for writing, or stdout when path is empty or "-".
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func runImportCSV() {
	fs, configPath := newFlagSet("import-csv")
	accountID := fs.String("account", "", "Account ID to import into")
	filePath := fs.String("file", "", "Path to the statement CSV")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	if *accountID == "" || *filePath == "" {
		e.log.Fatal().Msg("Usage: cli import-csv -account ID -file PATH")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to open CSV file")
	}
	defer f.Close()

	res, err := e.ledger.ImportCSV(e.ctx, f, *accountID)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Imported %d transactions, skipped %d rows.\n", res.Imported, res.Skipped)
}

func runExportCSV() {
	fs, configPath := newFlagSet("export-csv")
	accountID := fs.String("account", "", "Only export transactions touching this account")
	outPath := fs.String("out", "", "Output file (defaults to stdout)")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	w, err := output(*outPath)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer w.Close()

	if err := e.ledger.ExportCSV(w, *accountID); err != nil {
		e.log.Fatal().Err(err).Msg("Export failed")
	}
}

func runImportJSON() {
	fs, configPath := newFlagSet("import-json")
	filePath := fs.String("file", "", "Path to the JSON bundle")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	if *filePath == "" {
		e.log.Fatal().Msg("Error: --file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to read bundle")
	}
	state, version, err := snapshot.Decode(data)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Invalid bundle")
	}

	e.ledger.Restore(state)
	if err := persist.SaveState(e.ctx, e.stores, e.ledger.State()); err != nil {
		e.log.Fatal().Err(err).Msg("Failed to save imported ledger")
	}

	fmt.Printf("Imported bundle version %d: %d accounts, %d transactions.\n",
		version, len(state.Accounts), len(state.Transactions))
}

func runExportJSON() {
	fs, configPath := newFlagSet("export-json")
	outPath := fs.String("out", "", "Output file (defaults to stdout)")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	data, err := snapshot.Encode(e.ledger.State())
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to encode ledger")
	}

	w, err := output(*outPath)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer w.Close()

	if _, err := w.Write(data); err != nil {
		e.log.Fatal().Err(err).Msg("Failed to write bundle")
	}
}

func runSummary() {
	fs, configPath := newFlagSet("summary")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	sum := e.ledger.Summary()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Account\tBalance\tSaved\tFree\tAvailable\t")
	for _, a := range sum.Accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t\n",
			a.Name, a.Balance.StringFixed(2), a.Saved.StringFixed(2), a.Free.StringFixed(2), a.IsAvailable)
	}
	tw.Flush()

	fmt.Println()
	fmt.Printf("Available:      %s\n", sum.AvailableSum.StringFixed(2))
	fmt.Printf("Net open debts: %s\n", sum.NetOpenDebts.StringFixed(2))
	fmt.Printf("Total value:    %s\n", sum.TotalValue.StringFixed(2))
}

func runSnapshots() {
	fs, configPath := newFlagSet("snapshots")
	restoreID := fs.Int64("restore", 0, "Snapshot ID to restore into every configured store")
	fs.Parse(os.Args[2:])

	e := setup(context.Background(), *configPath)
	defer e.close()

	if e.cfg.Storage.SQLitePath == "" {
		e.log.Fatal().Msg("Snapshot history needs storage.sqlite_path")
	}
	// A second handle on the same database; the ledger's own store is
	// wrapped behind app.Stores.
	db, err := sqlite.Open(e.cfg.Storage.SQLitePath, e.cfg.Storage.SQLiteKeep)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to open SQLite history")
	}
	defer db.Close()

	if *restoreID == 0 {
		infos, err := db.List(e.ctx)
		if err != nil {
			e.log.Fatal().Err(err).Msg("Failed to list snapshots")
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCreated\tBytes")
		for _, info := range infos {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", info.ID, info.CreatedAt.Format(time.RFC3339), info.Size)
		}
		tw.Flush()
		return
	}

	data, err := db.LoadByID(e.ctx, *restoreID)
	if err != nil {
		e.log.Fatal().Err(err).Int64("snapshot_id", *restoreID).Msg("Failed to load snapshot")
	}
	state, _, err := snapshot.Decode(data)
	if err != nil {
		e.log.Fatal().Err(err).Int64("snapshot_id", *restoreID).Msg("Snapshot is corrupt")
	}
	e.ledger.Restore(state)
	if err := persist.SaveState(e.ctx, e.stores, e.ledger.State()); err != nil {
		e.log.Fatal().Err(err).Msg("Failed to save restored ledger")
	}

	fmt.Printf("Restored snapshot %d.\n", *restoreID)
}

func runPushBigQuery() {
	fs, configPath := newFlagSet("push-bigquery")
	ensure := fs.Bool("ensure-tables", true, "Create missing tables before exporting")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	e := setup(ctx, *configPath)
	defer e.close()

	if e.cfg.BigQuery.ProjectID == "" {
		e.log.Fatal().Msg("Error: bigquery.project_id (or GOOGLE_CLOUD_PROJECT) is required")
	}

	exporter, err := infraBQ.NewBigQueryExporter(e.ctx, e.cfg.BigQuery.ProjectID, e.cfg.BigQuery.Dataset)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
	}
	defer exporter.Close()

	if *ensure {
		if err := exporter.EnsureTables(e.ctx); err != nil {
			e.log.Fatal().Err(err).Msg("Failed to ensure tables")
		}
	}

	batch := infraBQ.NewBatch(uuid.NewString(), time.Now(), e.ledger.State(), e.ledger.Summary())
	e.log.Info().
		Str("export_id", batch.ExportID).
		Int("transactions", len(batch.Transactions)).
		Int("accounts", len(batch.Balances)).
		Msg("Exporting ledger to BigQuery")

	if err := exporter.Export(e.ctx, batch); err != nil {
		e.log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %s to %s.%s.\n", batch.ExportID, e.cfg.BigQuery.ProjectID, e.cfg.BigQuery.Dataset)
}

func runBQTransactions() {
	fs, configPath := newFlagSet("bq-transactions")
	start := fs.String("start", "", "First date to include (YYYY-MM-DD, required)")
	end := fs.String("end", "", "Last date to include (YYYY-MM-DD, defaults to today)")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	e := setup(ctx, *configPath)
	defer e.close()

	if e.cfg.BigQuery.ProjectID == "" {
		e.log.Fatal().Msg("Error: bigquery.project_id (or GOOGLE_CLOUD_PROJECT) is required")
	}
	if *start == "" {
		fs.Usage()
		e.log.Fatal().Msg("Error: -start is required")
	}
	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		e.log.Fatal().Err(err).Str("start", *start).Msg("Invalid start date")
	}
	endDate := time.Now().UTC()
	if *end != "" {
		if endDate, err = time.Parse(time.DateOnly, *end); err != nil {
			e.log.Fatal().Err(err).Str("end", *end).Msg("Invalid end date")
		}
	}

	exporter, err := infraBQ.NewBigQueryExporter(e.ctx, e.cfg.BigQuery.ProjectID, e.cfg.BigQuery.Dataset)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
	}
	defer exporter.Close()

	rows, err := exporter.QueryTransactionsByDateRange(e.ctx, startDate, endDate)
	if err != nil {
		e.log.Fatal().Err(err).Msg("Query failed")
	}
	if len(rows) == 0 {
		fmt.Println("No transactions in range.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tKIND\tAMOUNT\tNAME\tACCOUNT\tCATEGORY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TransactionDate, r.Kind, r.AmountString(), r.Name, r.Party(), r.CategoryName.StringVal)
	}
	tw.Flush()
	fmt.Printf("\n%d transactions from export %s.\n", len(rows), rows[0].ExportID)
}
