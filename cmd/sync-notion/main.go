package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("LEDGER_CONFIG"), "Path to the YAML config file (or set LEDGER_CONFIG env)")
	startDateStr := flag.String("start-date", "", "Only sync transactions on or after this date (YYYY-MM-DD)")
	endDateStr := flag.String("end-date", "", "Only sync transactions on or before this date (YYYY-MM-DD)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides NOTION_TOKEN)")
	transactionsDB := flag.String("notion-db-id", "", "Transactions database ID (overrides NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if lvl, err := logger.NewWithLevel(cfg.Log.Level); err == nil {
		log = lvl
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *transactionsDB != "" {
		cfg.Notion.TransactionsDatabase = *transactionsDB
	}

	// Validate required settings
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	dbs := notionsync.Databases{
		Accounts:     cfg.Notion.AccountsDatabase,
		Categories:   cfg.Notion.CategoriesDatabase,
		Transactions: cfg.Notion.TransactionsDatabase,
	}
	if dbs == (notionsync.Databases{}) {
		log.Fatal().Msg("Error: at least one Notion database ID is required")
	}

	// Parse dates; an empty bound is open
	var startDate, endDate time.Time
	if *startDateStr != "" {
		if startDate, err = time.Parse("2006-01-02", *startDateStr); err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
	}
	if *endDateStr != "" {
		if endDate, err = time.Parse("2006-01-02", *endDateStr); err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
	}

	// Validate date range
	if !startDate.IsZero() && !endDate.IsZero() && endDate.Before(startDate) {
		log.Fatal().
			Time("start_date", startDate).
			Time("end_date", endDate).
			Msg("Error: end-date must be after start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("start_date", *startDateStr).
		Str("end_date", *endDateStr).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Load the ledger read-only: no persister is attached
	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshot storage")
	}
	defer stores.Close()

	l, err := app.LoadLedger(ctx, stores, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(cfg.Notion.Token)

	syncer := notionsync.NewSyncer(notionClient, dbs, *dryRun)
	if err := syncer.SyncAll(ctx, l, startDate, endDate); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
