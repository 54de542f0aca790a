package app

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/persist"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStores_NothingConfigured(t *testing.T) {
	_, err := OpenStores(context.Background(), config.StorageConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenStores_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	stores, err := OpenStores(context.Background(), config.StorageConfig{File: path}, zerolog.Nop())
	require.NoError(t, err)
	defer stores.Close()

	fs, ok := stores.SnapshotStore.(*persist.FileStore)
	require.True(t, ok, "a single backend is used directly")
	assert.Equal(t, path, fs.Path())
}

func TestLoadLedger_RoundTripThroughMirroredStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.StorageConfig{
		File:       filepath.Join(dir, "ledger.json"),
		SQLitePath: filepath.Join(dir, "ledger.db"),
		SQLiteKeep: 5,
	}
	log := logger.NewWithWriter(io.Discard)

	stores, err := OpenStores(ctx, cfg, log)
	require.NoError(t, err)
	defer stores.Close()
	_, isMulti := stores.SnapshotStore.(*persist.MultiStore)
	assert.True(t, isMulti)

	// Empty stores give an empty ledger.
	l, err := LoadLedger(ctx, stores, log)
	require.NoError(t, err)
	assert.Empty(t, l.Accounts())

	l = ledger.New(ledger.WithPersister(persist.NewSyncPersister(stores, log)))
	_, err = l.AddAccount(ctx, domain.Account{
		Name:           "Giro",
		Category:       domain.AccountChecking,
		InitialBalance: decimal.RequireFromString("42.50"),
		IsAvailable:    true,
	})
	require.NoError(t, err)

	restored, err := LoadLedger(ctx, stores, log)
	require.NoError(t, err)
	accounts := restored.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, "Giro", accounts[0].Name)
	assert.True(t, accounts[0].InitialBalance.Equal(decimal.RequireFromString("42.50")))
}

func TestLogGoalReached_OneLinePerCrossing(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	l := ledger.New(
		ledger.WithLogger(log),
		ledger.WithGoalReachedHandler(LogGoalReached(log)),
	)
	acc, err := l.AddAccount(ctx, domain.Account{
		Name:           "Giro",
		Category:       domain.AccountChecking,
		InitialBalance: decimal.RequireFromString("100"),
		IsAvailable:    true,
	})
	require.NoError(t, err)
	pot, err := l.AddPot(ctx, domain.SavingsPot{AccountID: acc.ID, Name: "Bike", Goal: decimal.RequireFromString("30")})
	require.NoError(t, err)

	_, err = l.MoveToPot(ctx, acc.ID, pot.ID, decimal.RequireFromString("30"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "Savings goal reached"), buf.String())
	assert.Contains(t, buf.String(), `"account_id":"`+acc.ID+`"`)
	assert.Contains(t, buf.String(), `"saved":"30.00"`)
}
