// Package snapshot encodes the complete ledger state as a versioned JSON
// bundle and decodes every version written so far.
//
//	v1: accounts, transactions, investments
//	v2: v1 + savingsPots, categories, categoryMemory
//	v3: v2 + debts, settings
//
// Fields are declared in key order so the encoded objects come out sorted.
package snapshot

import (
	"github.com/dvloznov/finance-ledger/internal/domain"
)

// CurrentVersion is the version Encode writes.
const CurrentVersion = 3

type bundleV1 struct {
	Accounts     []domain.Account     `json:"accounts"`
	Investments  []domain.Investment  `json:"investments"`
	Transactions []domain.Transaction `json:"transactions"`
	Version      int                  `json:"version"`
}

type bundleV2 struct {
	Accounts       []domain.Account     `json:"accounts"`
	Categories     []domain.Category    `json:"categories"`
	CategoryMemory map[string]string    `json:"categoryMemory"`
	Investments    []domain.Investment  `json:"investments"`
	SavingsPots    []domain.SavingsPot  `json:"savingsPots"`
	Transactions   []domain.Transaction `json:"transactions"`
	Version        int                  `json:"version"`
}

type bundleV3 struct {
	Accounts       []domain.Account     `json:"accounts"`
	Categories     []domain.Category    `json:"categories"`
	CategoryMemory map[string]string    `json:"categoryMemory"`
	Debts          []domain.Debt        `json:"debts"`
	Investments    []domain.Investment  `json:"investments"`
	SavingsPots    []domain.SavingsPot  `json:"savingsPots"`
	Settings       *domain.Settings     `json:"settings"`
	Transactions   []domain.Transaction `json:"transactions"`
	Version        int                  `json:"version"`
}

func (b bundleV1) state() domain.State {
	return withDefaults(domain.State{
		Accounts:     b.Accounts,
		Transactions: b.Transactions,
		Investments:  b.Investments,
	})
}

func (b bundleV2) state() domain.State {
	return withDefaults(domain.State{
		Accounts:       b.Accounts,
		Transactions:   b.Transactions,
		Pots:           b.SavingsPots,
		Categories:     b.Categories,
		Investments:    b.Investments,
		CategoryMemory: b.CategoryMemory,
	})
}

func (b bundleV3) state() domain.State {
	s := domain.State{
		Accounts:       b.Accounts,
		Transactions:   b.Transactions,
		Pots:           b.SavingsPots,
		Categories:     b.Categories,
		Debts:          b.Debts,
		Investments:    b.Investments,
		CategoryMemory: b.CategoryMemory,
	}
	if b.Settings != nil {
		s.Settings = *b.Settings
	}
	return withDefaults(s)
}

// withDefaults fills what older versions (or sparse files) leave out:
// empty collections, the seed categories and default settings.
func withDefaults(s domain.State) domain.State {
	if s.Accounts == nil {
		s.Accounts = []domain.Account{}
	}
	if s.Transactions == nil {
		s.Transactions = []domain.Transaction{}
	}
	if s.Pots == nil {
		s.Pots = []domain.SavingsPot{}
	}
	if len(s.Categories) == 0 {
		s.Categories = domain.DefaultCategories()
	}
	if s.Debts == nil {
		s.Debts = []domain.Debt{}
	}
	if s.Investments == nil {
		s.Investments = []domain.Investment{}
	}
	if s.CategoryMemory == nil {
		s.CategoryMemory = map[string]string{}
	}
	if s.Settings.AppearanceMode == "" {
		s.Settings.AppearanceMode = domain.DefaultSettings().AppearanceMode
	}
	return s
}
