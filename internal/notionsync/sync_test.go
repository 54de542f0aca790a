package notionsync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// fakeNotion keeps pages per database in memory and pages query results in
// small chunks so pagination is exercised.
type fakeNotion struct {
	pages    map[string][]notionapi.Page
	nextID   int
	creates  int
	updates  int
	archived []string
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{pages: make(map[string][]notionapi.Page)}
}

const fakePageSize = 2

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.nextID++
	f.creates++
	page := notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("page-%d", f.nextID)), Properties: stored(properties)}
	f.pages[databaseID] = append(f.pages[databaseID], page)
	return &page, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.updates++
	for db, pages := range f.pages {
		for i := range pages {
			if string(pages[i].ID) == pageID {
				f.pages[db][i].Properties = stored(properties)
				p := f.pages[db][i]
				return &p, nil
			}
		}
	}
	return nil, fmt.Errorf("page %s not found", pageID)
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	pages := f.pages[databaseID]
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := min(start+fakePageSize, len(pages))
	resp := &notionapi.DatabaseQueryResponse{Results: append([]notionapi.Page(nil), pages[start:end]...)}
	if end < len(pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(fmt.Sprintf("%d", end))
	}
	return resp, nil
}

func (f *fakeNotion) DeletePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	for db, pages := range f.pages {
		for i := range pages {
			if string(pages[i].ID) == pageID {
				f.pages[db] = append(pages[:i], pages[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

// stored mimics what the API returns: pointer properties with PlainText set.
func stored(props notionapi.Properties) notionapi.Properties {
	out := make(notionapi.Properties, len(props))
	for name, p := range props {
		if rt, ok := p.(notionapi.RichTextProperty); ok {
			cp := rt
			cp.RichText = []notionapi.RichText{{PlainText: rt.RichText[0].Text.Content}}
			out[name] = &cp
			continue
		}
		out[name] = p
	}
	return out
}

func keyed(id string, key string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			propTransactionID: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: key}}},
		},
	}
}

var testDBs = Databases{Accounts: "db-acc", Categories: "db-cat", Transactions: "db-tx"}

func newSyncLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	n := 0
	l := ledger.New(ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }))
	ctx := context.Background()

	giro, err := l.AddAccount(ctx, domain.Account{Name: "Giro", Category: domain.AccountChecking, IsAvailable: true})
	if err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	savings, err := l.AddAccount(ctx, domain.Account{Name: "Savings", Category: domain.AccountCallMoney})
	if err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}

	txs := []domain.Transaction{
		{Date: day(2), Name: "Salary", Amount: decimal.NewFromInt(2000), Kind: domain.KindIncome, AccountID: domain.Ptr(giro.ID)},
		{Date: day(5), Name: "REWE", Amount: decimal.RequireFromString("-42.10"), Kind: domain.KindExpense, AccountID: domain.Ptr(giro.ID)},
		{Date: day(20), Name: "Transfer", Amount: decimal.NewFromInt(500), Kind: domain.KindTransfer,
			FromAccountID: domain.Ptr(giro.ID), ToAccountID: domain.Ptr(savings.ID)},
	}
	for _, tx := range txs {
		if _, err := l.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
	}
	return l
}

func day(d int) time.Time {
	return time.Date(2025, time.September, d, 0, 0, 0, 0, time.UTC)
}

func TestSyncAll_CreatesThenSkips(t *testing.T) {
	l := newSyncLedger(t)
	fake := newFakeNotion()
	s := NewSyncer(fake, testDBs, false)
	ctx := context.Background()

	if err := s.SyncAll(ctx, l, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}

	if got, want := len(fake.pages["db-cat"]), len(l.Categories()); got != want {
		t.Errorf("category pages = %d, want %d", got, want)
	}
	if got := len(fake.pages["db-acc"]); got != 2 {
		t.Errorf("account pages = %d, want 2", got)
	}
	if got := len(fake.pages["db-tx"]); got != 3 {
		t.Errorf("transaction pages = %d, want 3", got)
	}

	res, err := s.SyncTransactions(ctx, l.State(), time.Time{}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("SyncTransactions failed: %v", err)
	}
	if res != (Result{Skipped: 3}) {
		t.Errorf("second sync = %+v, want 3 skipped", res)
	}
}

func TestSyncTransactions_Reconciles(t *testing.T) {
	l := newSyncLedger(t)
	fake := newFakeNotion()
	s := NewSyncer(fake, testDBs, false)
	ctx := context.Background()

	if _, err := s.SyncTransactions(ctx, l.State(), time.Time{}, time.Time{}, nil); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	txs := l.Transactions()
	// Newest first: Transfer, REWE, Salary.
	changed := txs[1]
	changed.Name = "REWE City"
	if _, err := l.UpdateTransaction(ctx, changed); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if err := l.DeleteTransaction(ctx, txs[2].ID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	fake.pages["db-tx"] = append(fake.pages["db-tx"],
		keyed("orphan", ""),
		keyed("dup", txs[0].ID),
	)

	res, err := s.SyncTransactions(ctx, l.State(), time.Time{}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("SyncTransactions failed: %v", err)
	}

	want := Result{Updated: 1, Deleted: 3, Skipped: 1}
	if res != want {
		t.Errorf("SyncTransactions() = %+v, want %+v", res, want)
	}
	if got := len(fake.pages["db-tx"]); got != 2 {
		t.Errorf("remaining pages = %d, want 2", got)
	}
}

func TestSyncTransactions_DateRange(t *testing.T) {
	l := newSyncLedger(t)
	fake := newFakeNotion()
	s := NewSyncer(fake, testDBs, false)
	ctx := context.Background()

	if _, err := s.SyncTransactions(ctx, l.State(), time.Time{}, time.Time{}, nil); err != nil {
		t.Fatalf("initial sync failed: %v", err)
	}

	res, err := s.SyncTransactions(ctx, l.State(), day(1), day(10), nil)
	if err != nil {
		t.Fatalf("SyncTransactions failed: %v", err)
	}
	if res != (Result{Skipped: 2}) {
		t.Errorf("SyncTransactions() = %+v, want 2 skipped and nothing deleted", res)
	}
	if len(fake.archived) != 0 {
		t.Errorf("pages outside the range must be kept, archived %v", fake.archived)
	}
}

func TestSyncAll_DryRun(t *testing.T) {
	l := newSyncLedger(t)
	fake := newFakeNotion()
	fake.pages["db-tx"] = []notionapi.Page{keyed("stale", "gone")}
	s := NewSyncer(fake, Databases{Transactions: "db-tx"}, true)

	res, err := s.SyncTransactions(context.Background(), l.State(), time.Time{}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("SyncTransactions failed: %v", err)
	}
	if res != (Result{Created: 3, Deleted: 1}) {
		t.Errorf("dry run = %+v", res)
	}
	if fake.creates != 0 || fake.updates != 0 || len(fake.archived) != 0 {
		t.Errorf("dry run wrote: %d creates, %d updates, %d archives", fake.creates, fake.updates, len(fake.archived))
	}
}

func TestSyncCategories_ReturnsPageIDs(t *testing.T) {
	fake := newFakeNotion()
	s := NewSyncer(fake, testDBs, false)
	cats := domain.DefaultCategories()

	ids, res, err := s.SyncCategories(context.Background(), cats)
	if err != nil {
		t.Fatalf("SyncCategories failed: %v", err)
	}
	if res.Created != len(cats) || len(ids) != len(cats) {
		t.Fatalf("created %d, ids %d, want %d", res.Created, len(ids), len(cats))
	}

	ids2, res2, err := s.SyncCategories(context.Background(), cats)
	if err != nil {
		t.Fatalf("second SyncCategories failed: %v", err)
	}
	if res2.Updated != len(cats) || res2.Created != 0 {
		t.Errorf("second sync = %+v", res2)
	}
	for id, page := range ids {
		if ids2[id] != page {
			t.Errorf("category %s moved from page %s to %s", id, page, ids2[id])
		}
	}
}

func TestTransactionToNotionProperties(t *testing.T) {
	names := map[string]string{"a": "Giro", "b": "Savings"}
	tx := domain.Transaction{
		ID:            "t1",
		Date:          time.Date(2025, 9, 3, 18, 30, 0, 0, time.UTC),
		Name:          "To savings",
		Amount:        decimal.RequireFromString("12.50"),
		Kind:          domain.KindTransfer,
		FromAccountID: domain.Ptr("a"),
		ToAccountID:   domain.Ptr("b"),
		CategoryID:    domain.Ptr("cat"),
	}

	props := TransactionToNotionProperties(tx, names, map[string]string{"cat": "page-cat"})

	if got := props["Account"].(notionapi.RichTextProperty).RichText[0].Text.Content; got != "Giro → Savings" {
		t.Errorf("Account = %q", got)
	}
	if got := props["Amount"].(notionapi.NumberProperty).Number; got != 12.5 {
		t.Errorf("Amount = %v", got)
	}
	rel := props["Category"].(notionapi.RelationProperty).Relation
	if len(rel) != 1 || rel[0].ID != "page-cat" {
		t.Errorf("Category relation = %+v", rel)
	}
	start := time.Time(*props["Date"].(notionapi.DateProperty).Date.Start)
	if !start.Equal(time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", start)
	}
	if _, ok := props["Notes"]; ok {
		t.Error("Notes must be omitted when empty")
	}

	pot := tx
	pot.ToAccountID = domain.Ptr("a")
	pot.ToPotID = domain.Ptr("p")
	if got := accountLabel(pot, names); got != "Giro" {
		t.Errorf("pot transfer label = %q, want Giro", got)
	}
}

func TestTransactionChecksum(t *testing.T) {
	base := domain.Transaction{ID: "t1", Date: day(1), Name: "A", Amount: decimal.NewFromInt(-5), Kind: domain.KindExpense}
	same := base
	if TransactionChecksum(base) != TransactionChecksum(same) {
		t.Error("checksum must be deterministic")
	}

	withNote := base
	withNote.Note = domain.Ptr("x")
	if TransactionChecksum(base) == TransactionChecksum(withNote) {
		t.Error("note change must change the checksum")
	}
}
