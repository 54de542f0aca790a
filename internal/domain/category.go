package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

// Category is a user-defined label for income and expenses.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// NormalizeName is the key used by the category memory: trimmed and lower-cased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// categoryNamespace derives stable IDs for the seed categories so that
// repeated seeding never produces duplicates.
var categoryNamespace = uuid.MustParse("6f1c2f0e-3b0a-4d8e-9a57-0b8e5b7c9d21")

// DefaultCategories returns the seed set used when a ledger has no categories.
func DefaultCategories() []Category {
	seed := []struct {
		name  string
		color Color
	}{
		{"Groceries", Color{Red: 0.30, Green: 0.69, Blue: 0.31, Alpha: 1}},
		{"Housing", Color{Red: 0.25, Green: 0.47, Blue: 0.85, Alpha: 1}},
		{"Transport", Color{Red: 1.00, Green: 0.60, Blue: 0.00, Alpha: 1}},
		{"Leisure", Color{Red: 0.61, Green: 0.15, Blue: 0.69, Alpha: 1}},
		{"Income", Color{Red: 0.00, Green: 0.59, Blue: 0.53, Alpha: 1}},
	}
	out := make([]Category, 0, len(seed))
	for _, s := range seed {
		out = append(out, Category{
			ID:    uuid.NewSHA1(categoryNamespace, []byte(NormalizeName(s.name))).String(),
			Name:  s.name,
			Color: s.color,
		})
	}
	return out
}
