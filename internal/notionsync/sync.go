package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
)

// Databases holds the Notion database IDs. Empty IDs are skipped.
type Databases struct {
	Accounts     string
	Categories   string
	Transactions string
}

// Result counts what one sync did (or would do in dry-run mode).
type Result struct {
	Created int
	Updated int
	Deleted int
	Skipped int
}

// Syncer mirrors ledger content into Notion databases. Each database is
// reconciled against the ledger: pages of removed entities are archived,
// changed ones updated and new ones created.
type Syncer struct {
	client NotionService
	dbs    Databases
	dryRun bool
}

// NewSyncer creates a Syncer. In dry-run mode nothing is written.
func NewSyncer(client NotionService, dbs Databases, dryRun bool) *Syncer {
	return &Syncer{client: client, dbs: dbs, dryRun: dryRun}
}

// SyncAll mirrors categories, accounts and the transactions dated within
// [startDate, endDate]. A zero bound is open.
func (s *Syncer) SyncAll(ctx context.Context, src Source, startDate, endDate time.Time) error {
	log := logger.FromContext(ctx)
	state := src.State()

	var categoryPageIDs map[string]string
	if s.dbs.Categories != "" {
		ids, _, err := s.SyncCategories(ctx, state.Categories)
		if err != nil {
			return fmt.Errorf("SyncAll: %w", err)
		}
		categoryPageIDs = ids
	}

	if s.dbs.Accounts != "" {
		if _, err := s.SyncAccounts(ctx, state.Accounts, src.Summary()); err != nil {
			return fmt.Errorf("SyncAll: %w", err)
		}
	}

	if s.dbs.Transactions != "" {
		if _, err := s.SyncTransactions(ctx, state, startDate, endDate, categoryPageIDs); err != nil {
			return fmt.Errorf("SyncAll: %w", err)
		}
	}

	log.Info().Bool("dry_run", s.dryRun).Msg("Notion sync completed")
	return nil
}

// SyncCategories mirrors the categories and returns category ID -> page ID
// for the transaction relation.
func (s *Syncer) SyncCategories(ctx context.Context, categories []domain.Category) (map[string]string, Result, error) {
	desired := make([]desiredPage, 0, len(categories))
	keep := make(map[string]bool, len(categories))
	for _, c := range categories {
		keep[c.ID] = true
		desired = append(desired, desiredPage{key: c.ID, props: CategoryToNotionProperties(c)})
	}

	ids, res, err := s.reconcile(ctx, "categories", s.dbs.Categories, propCategoryID, desired, keep)
	if err != nil {
		return nil, res, fmt.Errorf("SyncCategories: %w", err)
	}
	return ids, res, nil
}

// SyncAccounts mirrors accounts together with their derived balances.
func (s *Syncer) SyncAccounts(ctx context.Context, accounts []domain.Account, summary ledger.Summary) (Result, error) {
	figures := make(map[string]ledger.AccountSummary, len(summary.Accounts))
	for _, a := range summary.Accounts {
		figures[a.AccountID] = a
	}

	desired := make([]desiredPage, 0, len(accounts))
	keep := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		keep[acc.ID] = true
		desired = append(desired, desiredPage{key: acc.ID, props: AccountToNotionProperties(acc, figures[acc.ID])})
	}

	_, res, err := s.reconcile(ctx, "accounts", s.dbs.Accounts, propAccountID, desired, keep)
	if err != nil {
		return res, fmt.Errorf("SyncAccounts: %w", err)
	}
	return res, nil
}

// SyncTransactions mirrors the transactions dated within the range. Pages of
// transactions that no longer exist in the ledger are archived whatever
// their date; pages outside the range are otherwise left alone.
func (s *Syncer) SyncTransactions(ctx context.Context, state domain.State, startDate, endDate time.Time, categoryPageIDs map[string]string) (Result, error) {
	log := logger.FromContext(ctx)

	accountNames := make(map[string]string, len(state.Accounts))
	for _, a := range state.Accounts {
		accountNames[a.ID] = a.Name
	}

	keep := make(map[string]bool, len(state.Transactions))
	var desired []desiredPage
	for _, tx := range state.Transactions {
		keep[tx.ID] = true
		if !inRange(tx.Date, startDate, endDate) {
			continue
		}
		desired = append(desired, desiredPage{
			key:      tx.ID,
			props:    TransactionToNotionProperties(tx, accountNames, categoryPageIDs),
			checksum: TransactionChecksum(tx),
		})
	}

	log.Info().
		Time("start_date", startDate).
		Time("end_date", endDate).
		Int("transaction_count", len(desired)).
		Msg("Starting transaction sync to Notion")

	_, res, err := s.reconcile(ctx, "transactions", s.dbs.Transactions, propTransactionID, desired, keep)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: %w", err)
	}
	return res, nil
}

// desiredPage is the wanted content of one page. An empty checksum means the
// page is rewritten on every sync.
type desiredPage struct {
	key      string
	props    notionapi.Properties
	checksum string
}

func (s *Syncer) reconcile(ctx context.Context, kind, databaseID, keyProp string, desired []desiredPage, keep map[string]bool) (map[string]string, Result, error) {
	log := logger.FromContext(ctx).With().Str("database", kind).Bool("dry_run", s.dryRun).Logger()
	var res Result

	pages, err := queryAllNotionPages(ctx, s.client, databaseID)
	if err != nil {
		return nil, res, fmt.Errorf("failed to query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	existing := make(map[string]notionapi.Page, len(pages))
	for _, page := range pages {
		key := richTextValue(page, keyProp)
		_, dup := existing[key]
		// Pages without a key, of removed entities, or duplicates of a key
		// already seen are archived.
		if key == "" || !keep[key] || dup {
			if s.archive(ctx, log, page, key) {
				res.Deleted++
			}
			continue
		}
		existing[key] = page
	}

	pageIDs := make(map[string]string, len(desired))
	for i := 0; i < len(desired); i += BatchSize {
		end := min(i+BatchSize, len(desired))
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Processing batch")

		for _, d := range desired[i:end] {
			page, found := existing[d.key]
			switch {
			case found && d.checksum != "" && richTextValue(page, propChecksum) == d.checksum:
				pageIDs[d.key] = string(page.ID)
				res.Skipped++

			case found:
				pageIDs[d.key] = string(page.ID)
				if s.dryRun {
					log.Info().Str("key", d.key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update Notion page")
					res.Updated++
					continue
				}
				if _, err := s.client.UpdatePage(ctx, string(page.ID), d.props); err != nil {
					log.Warn().Err(err).Str("key", d.key).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
					continue
				}
				log.Debug().Str("key", d.key).Str("page_id", string(page.ID)).Msg("Updated Notion page")
				res.Updated++

			default:
				if s.dryRun {
					log.Info().Str("key", d.key).Msg("[DRY RUN] Would create Notion page")
					res.Created++
					continue
				}
				created, err := s.client.CreatePage(ctx, databaseID, d.props)
				if err != nil {
					log.Warn().Err(err).Str("key", d.key).Msg("Failed to create Notion page")
					continue
				}
				pageIDs[d.key] = string(created.ID)
				log.Debug().Str("key", d.key).Str("page_id", string(created.ID)).Msg("Created Notion page")
				res.Created++
			}
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("skipped", res.Skipped).
		Int("total", len(desired)).
		Msg("Notion database sync completed")

	return pageIDs, res, nil
}

func (s *Syncer) archive(ctx context.Context, log zerolog.Logger, page notionapi.Page, key string) bool {
	if s.dryRun {
		log.Info().Str("key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
		return true
	}
	if err := s.client.DeletePage(ctx, string(page.ID)); err != nil {
		log.Warn().Err(err).Str("key", key).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
		return false
	}
	log.Debug().Str("key", key).Str("page_id", string(page.ID)).Msg("Deleted stale Notion page")
	return true
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// richTextValue extracts a rich text property's plain text.
// Returns empty string if not found.
func richTextValue(page notionapi.Page, name string) string {
	if prop, ok := page.Properties[name]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}

func inRange(d, start, end time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if !start.IsZero() && day.Before(start) {
		return false
	}
	if !end.IsZero() && day.After(end) {
		return false
	}
	return true
}
