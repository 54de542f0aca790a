package domain

// AppearanceMode is the UI color scheme preference carried in exports.
type AppearanceMode string

const (
	AppearanceSystem AppearanceMode = "system"
	AppearanceLight  AppearanceMode = "light"
	AppearanceDark   AppearanceMode = "dark"
)

// Settings are user preferences stored alongside the ledger data.
type Settings struct {
	AppearanceMode    AppearanceMode `json:"appearanceMode"`
	HasSeenOnboarding bool           `json:"hasSeenOnboarding"`
}

// DefaultSettings returns the settings used when none were stored.
func DefaultSettings() Settings {
	return Settings{AppearanceMode: AppearanceSystem}
}

// State is the complete ledger content exchanged with persistence.
type State struct {
	Accounts       []Account
	Transactions   []Transaction
	Pots           []SavingsPot
	Categories     []Category
	Debts          []Debt
	Investments    []Investment
	CategoryMemory map[string]string
	Settings       Settings
}

// Clone returns a copy whose slices and map can be modified independently.
// Pointer fields inside entities are shared; entities are treated as values.
func (s State) Clone() State {
	out := State{
		Accounts:       append([]Account(nil), s.Accounts...),
		Transactions:   append([]Transaction(nil), s.Transactions...),
		Pots:           append([]SavingsPot(nil), s.Pots...),
		Categories:     append([]Category(nil), s.Categories...),
		Debts:          append([]Debt(nil), s.Debts...),
		Investments:    append([]Investment(nil), s.Investments...),
		CategoryMemory: make(map[string]string, len(s.CategoryMemory)),
		Settings:       s.Settings,
	}
	for k, v := range s.CategoryMemory {
		out.CategoryMemory[k] = v
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Is reports whether the optional ID p is set and equal to id.
func Is(p *string, id string) bool {
	return p != nil && *p == id
}

// Value returns the pointed-to string or "".
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
