package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// BigQueryExporter is the concrete implementation of Exporter.
type BigQueryExporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	location  string
}

var _ Exporter = (*BigQueryExporter)(nil)

// NewBigQueryExporter creates an exporter with a shared BigQuery client.
func NewBigQueryExporter(ctx context.Context, projectID, datasetID string) (*BigQueryExporter, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryExporter: project ID is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryExporter: creating client: %w", err)
	}
	return &BigQueryExporter{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		location:  "EU",
	}, nil
}

// Close closes the BigQuery client connection.
func (e *BigQueryExporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// EnsureTables creates the dataset and export tables, inferring schemas from
// the row types. Tables are partitioned by export time.
func (e *BigQueryExporter) EnsureTables(ctx context.Context) error {
	ds := e.client.DatasetInProject(e.projectID, e.datasetID)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{Location: e.location}); err != nil {
			return fmt.Errorf("EnsureTables: create dataset: %w", err)
		}
	}

	tables := []struct {
		name string
		row  interface{}
	}{
		{TransactionsTable, TransactionRow{}},
		{AccountBalancesTable, AccountBalanceRow{}},
		{CategoriesTable, CategoryRow{}},
	}
	for _, t := range tables {
		table := ds.Table(t.name)
		if _, err := table.Metadata(ctx); err == nil {
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: %s metadata: %w", t.name, err)
		}

		schema, err := bigquery.InferSchema(t.row)
		if err != nil {
			return fmt.Errorf("EnsureTables: infer %s schema: %w", t.name, err)
		}
		meta := &bigquery.TableMetadata{
			Schema:           schema,
			TimePartitioning: &bigquery.TimePartitioning{Field: "exported_ts"},
		}
		if err := table.Create(ctx, meta); err != nil {
			return fmt.Errorf("EnsureTables: create %s: %w", t.name, err)
		}
	}
	return nil
}

// Export streams the three row sets concurrently. Insert IDs are derived from
// the export and row IDs, so retrying a failed export does not duplicate rows.
func (e *BigQueryExporter) Export(ctx context.Context, batch *Batch) error {
	ds := e.client.DatasetInProject(e.projectID, e.datasetID)

	txSavers := make([]*bigquery.StructSaver, 0, len(batch.Transactions))
	for _, r := range batch.Transactions {
		txSavers = append(txSavers, &bigquery.StructSaver{Struct: r, InsertID: batch.ExportID + ":" + r.TransactionID})
	}
	balanceSavers := make([]*bigquery.StructSaver, 0, len(batch.Balances))
	for _, r := range batch.Balances {
		balanceSavers = append(balanceSavers, &bigquery.StructSaver{Struct: r, InsertID: batch.ExportID + ":" + r.AccountID})
	}
	categorySavers := make([]*bigquery.StructSaver, 0, len(batch.Categories))
	for _, r := range batch.Categories {
		categorySavers = append(categorySavers, &bigquery.StructSaver{Struct: r, InsertID: batch.ExportID + ":" + r.CategoryID})
	}

	g, gctx := errgroup.WithContext(ctx)
	put := func(table string, savers []*bigquery.StructSaver) {
		g.Go(func() error {
			if len(savers) == 0 {
				return nil
			}
			if err := ds.Table(table).Inserter().Put(gctx, savers); err != nil {
				return fmt.Errorf("Export: inserting into %s: %w", table, err)
			}
			return nil
		})
	}
	put(TransactionsTable, txSavers)
	put(AccountBalancesTable, balanceSavers)
	put(CategoriesTable, categorySavers)

	return g.Wait()
}

// QueryTransactionsByDateRange reads transactions of the most recent export.
func (e *BigQueryExporter) QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	if err := checkDateRange(startDate, endDate); err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: %w", err)
	}
	table := fmt.Sprintf("`%s.%s.%s`", e.projectID, e.datasetID, TransactionsTable)
	q := e.client.Query(`
		SELECT *
		FROM ` + table + `
		WHERE export_id = (
			SELECT export_id FROM ` + table + `
			ORDER BY exported_ts DESC
			LIMIT 1
		)
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: civil.DateOf(startDate)},
		{Name: "end_date", Value: civil.DateOf(endDate)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
