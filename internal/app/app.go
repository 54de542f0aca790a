// Package app wires configuration into the snapshot stores and the ledger
// shared by the binaries under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/gcs"
	"github.com/dvloznov/finance-ledger/internal/infra/sqlite"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/persist"
	"github.com/rs/zerolog"
)

// Stores is the set of snapshot backends selected by the configuration,
// mirrored behind one persist.SnapshotStore.
type Stores struct {
	persist.SnapshotStore

	closers []func() error
}

// Close releases backend clients.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStores opens every configured backend. Loads prefer the local file,
// then SQLite, then GCS.
func OpenStores(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*Stores, error) {
	s := &Stores{}
	var backends []persist.SnapshotStore

	if cfg.File != "" {
		backends = append(backends, persist.NewFileStore(cfg.File))
		log.Debug().Str("path", cfg.File).Msg("Using file snapshot store")
	}

	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(cfg.SQLitePath, cfg.SQLiteKeep)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("OpenStores: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		backends = append(backends, db)
		log.Debug().Str("path", cfg.SQLitePath).Int("keep", cfg.SQLiteKeep).Msg("Using SQLite snapshot store")
	}

	if cfg.GCSURI != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("OpenStores: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		store, err := gcs.NewStore(client, cfg.GCSURI)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("OpenStores: %w", err)
		}
		backends = append(backends, store)
		log.Debug().Str("uri", cfg.GCSURI).Msg("Using GCS snapshot store")
	}

	if len(backends) == 0 {
		return nil, errors.New("OpenStores: no snapshot storage configured")
	}
	if len(backends) == 1 {
		s.SnapshotStore = backends[0]
	} else {
		s.SnapshotStore = persist.NewMultiStore(backends...)
	}
	return s, nil
}

// LoadLedger builds a ledger and restores the stored snapshot into it, if
// there is one. Restoring never reaches the persister.
func LoadLedger(ctx context.Context, store persist.SnapshotStore, log zerolog.Logger, opts ...ledger.Option) (*ledger.Ledger, error) {
	l := ledger.New(append([]ledger.Option{ledger.WithLogger(log)}, opts...)...)

	state, ok, err := persist.LoadState(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("LoadLedger: %w", err)
	}
	if !ok {
		log.Info().Msg("No snapshot found, starting with an empty ledger")
		return l, nil
	}
	l.Restore(state)
	return l, nil
}

// LogGoalReached returns a goal handler that logs each reached savings goal.
func LogGoalReached(log zerolog.Logger) func(ledger.GoalReached) {
	return func(g ledger.GoalReached) {
		log.Info().
			Str("pot_id", g.PotID).
			Str("pot_name", g.PotName).
			Str("account_id", g.AccountID).
			Str("goal", g.Goal.StringFixed(2)).
			Str("saved", g.Saved.StringFixed(2)).
			Msg("Savings goal reached")
	}
}
