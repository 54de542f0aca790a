// Package ledger derives balances, pot allocations and totals from an
// in-memory transaction log and is the only write path to that log.
//
// A Ledger is safe for concurrent use; every operation runs under one mutex
// and completes in O(n) over the log without I/O. Persistence and goal
// notifications are delivered after the lock is released.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Persister receives the full state after each logical mutation batch.
// revision grows with every batch, so implementations can drop states that
// arrive out of order. Implementations must not block; failures are theirs
// to report.
type Persister interface {
	Persist(ctx context.Context, revision int64, state domain.State)
}

// Classifier proposes a category for a transaction name when the category
// memory has nothing. It is only consulted by bulk imports.
type Classifier interface {
	SuggestCategory(ctx context.Context, name string, categories []domain.Category) (string, bool, error)
}

// GoalReached is emitted once when a pot's saved amount crosses its goal.
type GoalReached struct {
	PotID     string
	PotName   string
	AccountID string
	Goal      decimal.Decimal
	Saved     decimal.Decimal
}

// Ledger is the mutable aggregate over accounts, transactions, pots,
// categories, debts and investments.
type Ledger struct {
	mu    sync.Mutex
	state domain.State

	// pending collects goal events raised by the mutation in progress.
	pending []GoalReached
	// revision counts persisted mutation batches.
	revision int64

	log        zerolog.Logger
	persister  Persister
	classifier Classifier
	onGoal     func(GoalReached)
	now        func() time.Time
	newID      func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for mutation and event logging.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithPersister registers the save-snapshot hook.
func WithPersister(p Persister) Option {
	return func(l *Ledger) { l.persister = p }
}

// WithClassifier registers a fallback category source for imports.
func WithClassifier(c Classifier) Option {
	return func(l *Ledger) { l.classifier = c }
}

// WithGoalReachedHandler registers the receiver of goal-reached events.
func WithGoalReachedHandler(fn func(GoalReached)) Option {
	return func(l *Ledger) { l.onGoal = fn }
}

// WithClock overrides time.Now, used to date pot transfers.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// New creates an empty ledger seeded with the default categories.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		log:   zerolog.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state = normalizeState(domain.State{})
	return l
}

// Restore replaces the whole ledger content, e.g. with a loaded snapshot.
// It does not trigger the persister.
func (l *Ledger) Restore(state domain.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = normalizeState(state.Clone())
	sortTransactions(l.state.Transactions)

	l.log.Info().
		Int("accounts", len(l.state.Accounts)).
		Int("transactions", len(l.state.Transactions)).
		Int("pots", len(l.state.Pots)).
		Msg("Ledger restored")
}

// State returns a copy of the current content.
func (l *Ledger) State() domain.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Settings returns the stored user preferences.
func (l *Ledger) Settings() domain.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Settings
}

// UpdateSettings replaces the user preferences.
func (l *Ledger) UpdateSettings(ctx context.Context, s domain.Settings) error {
	switch s.AppearanceMode {
	case domain.AppearanceSystem, domain.AppearanceLight, domain.AppearanceDark:
	default:
		return invalid("settings", "appearanceMode", "is unknown")
	}
	return l.mutate(ctx, "update_settings", func() error {
		l.state.Settings = s
		return nil
	})
}

// mutate runs fn under the lock and, if it succeeds, hands the new state to
// the persister and dispatches goal events outside the lock.
func (l *Ledger) mutate(ctx context.Context, op string, fn func() error) error {
	l.mu.Lock()
	l.pending = l.pending[:0]
	if err := fn(); err != nil {
		l.mu.Unlock()
		l.log.Debug().Err(err).Str("op", op).Msg("Ledger mutation rejected")
		return err
	}
	events := append([]GoalReached(nil), l.pending...)
	var state domain.State
	var revision int64
	if l.persister != nil {
		l.revision++
		revision = l.revision
		state = l.state.Clone()
	}
	l.mu.Unlock()

	l.log.Debug().Str("op", op).Int64("revision", revision).Msg("Ledger mutated")

	if l.persister != nil {
		l.persister.Persist(ctx, revision, state)
	}
	if l.onGoal != nil {
		for _, ev := range events {
			l.onGoal(ev)
		}
	}
	return nil
}

func normalizeState(s domain.State) domain.State {
	if s.CategoryMemory == nil {
		s.CategoryMemory = make(map[string]string)
	}
	if len(s.Categories) == 0 {
		s.Categories = domain.DefaultCategories()
	}
	if s.Settings.AppearanceMode == "" {
		s.Settings.AppearanceMode = domain.AppearanceSystem
	}
	// At most one primary account; the first one listed wins.
	primary := false
	for i := range s.Accounts {
		if s.Accounts[i].IsPrimary {
			s.Accounts[i].IsPrimary = !primary
			primary = true
		}
	}
	return s
}
