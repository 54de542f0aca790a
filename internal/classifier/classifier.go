// Package classifier guesses a category for imported transactions the
// category memory has never seen, by asking a language model to pick one of
// the existing categories.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// Classifier implements ledger.Classifier on top of a Generator.
type Classifier struct {
	gen Generator
	log zerolog.Logger
}

var _ ledger.Classifier = (*Classifier)(nil)

// New creates a Classifier.
func New(gen Generator, log zerolog.Logger) *Classifier {
	return &Classifier{gen: gen, log: log}
}

type answer struct {
	Category string `json:"category"`
}

// SuggestCategory returns the ID of the category the model chose for name.
// ok is false when the model declines or names a category that does not exist.
func (c *Classifier) SuggestCategory(ctx context.Context, name string, categories []domain.Category) (string, bool, error) {
	if strings.TrimSpace(name) == "" || len(categories) == 0 {
		return "", false, nil
	}

	raw, err := c.gen.Generate(ctx, buildPrompt(name, categories))
	if err != nil {
		return "", false, fmt.Errorf("SuggestCategory: %w", err)
	}

	var a answer
	clean := cleanModelJSON(raw)
	if err := json.Unmarshal([]byte(clean), &a); err != nil {
		return "", false, fmt.Errorf("SuggestCategory: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	id, ok := matchCategory(a.Category, categories)
	if !ok && a.Category != "" {
		c.log.Debug().Str("name", name).Str("answer", a.Category).Msg("Model answered with an unknown category")
	}
	return id, ok, nil
}

func buildPrompt(name string, categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("You categorize personal bank transactions.\n\n")
	b.WriteString("Use ONLY the following categories:\n")
	for _, cat := range categories {
		b.WriteString("  - " + cat.Name + "\n")
	}
	b.WriteString("\nTransaction description: ")
	b.WriteString(quote(name))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Answer with a JSON object {\"category\": \"<name>\"}.\n")
	b.WriteString("- The category must be EXACTLY one of the names above.\n")
	b.WriteString("- If none fits, answer {\"category\": \"\"}.\n")
	b.WriteString("Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n")
	return b.String()
}

// quote quotes a description so embedded newlines cannot break the prompt.
func quote(s string) string {
	q, _ := json.Marshal(s)
	return string(q)
}

func matchCategory(answer string, categories []domain.Category) (string, bool) {
	want := normalizeCategory(answer)
	if want == "" {
		return "", false
	}
	for _, cat := range categories {
		if normalizeCategory(cat.Name) == want {
			return cat.ID, true
		}
	}
	return "", false
}

func normalizeCategory(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// cleanModelJSON strips Markdown fences and any text around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}
