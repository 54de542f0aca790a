package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// Categories returns all categories.
func (l *Ledger) Categories() []domain.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Category(nil), l.state.Categories...)
}

// AddCategory creates a category.
func (l *Ledger) AddCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	err := l.mutate(ctx, "add_category", func() error {
		if c.ID == "" {
			c.ID = l.newID()
		} else if l.categoryExistsLocked(c.ID) {
			return invalid("category", "id", "already exists")
		}
		c.Name = strings.TrimSpace(c.Name)
		if err := validateCategory(c); err != nil {
			return err
		}
		l.state.Categories = append(l.state.Categories, c)
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// UpdateCategory replaces a category's name and color.
func (l *Ledger) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	err := l.mutate(ctx, "update_category", func() error {
		idx := l.categoryIndexLocked(c.ID)
		if idx < 0 {
			return notFound("category", c.ID)
		}
		c.Name = strings.TrimSpace(c.Name)
		if err := validateCategory(c); err != nil {
			return err
		}
		l.state.Categories[idx] = c
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// RemoveCategory deletes a category, forgets memory entries pointing at it
// and clears it from transactions.
func (l *Ledger) RemoveCategory(ctx context.Context, id string) error {
	return l.mutate(ctx, "remove_category", func() error {
		idx := l.categoryIndexLocked(id)
		if idx < 0 {
			return notFound("category", id)
		}
		l.state.Categories = append(l.state.Categories[:idx], l.state.Categories[idx+1:]...)
		for name, catID := range l.state.CategoryMemory {
			if catID == id {
				delete(l.state.CategoryMemory, name)
			}
		}
		for i := range l.state.Transactions {
			if domain.Is(l.state.Transactions[i].CategoryID, id) {
				l.state.Transactions[i].CategoryID = nil
			}
		}
		return nil
	})
}

// LearnCategory remembers categoryID for the normalized name. A nil ID or an
// empty name is ignored.
func (l *Ledger) LearnCategory(ctx context.Context, name string, categoryID *string) error {
	if categoryID == nil || domain.NormalizeName(name) == "" {
		return nil
	}
	return l.mutate(ctx, "learn_category", func() error {
		if !l.categoryExistsLocked(*categoryID) {
			return invalid("category memory", "categoryID", "references an unknown category")
		}
		l.learnLocked(name, *categoryID)
		return nil
	})
}

// SuggestedCategoryID returns the category last learned for name, compared
// case- and whitespace-insensitively.
func (l *Ledger) SuggestedCategoryID(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suggestLocked(name)
}

// CountPastUncategorized counts income and expenses dated strictly before
// `before` that have no category and whose normalized name matches.
func (l *Ledger) CountPastUncategorized(name string, before time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := domain.NormalizeName(name)
	n := 0
	for _, tx := range l.state.Transactions {
		if matchesUncategorized(tx, key, before) {
			n++
		}
	}
	return n
}

// ApplyCategory sets categoryID on every transaction CountPastUncategorized
// would count, re-learns the mapping and returns the number updated.
func (l *Ledger) ApplyCategory(ctx context.Context, categoryID, name string, before time.Time) (int, error) {
	n := 0
	err := l.mutate(ctx, "apply_category", func() error {
		if !l.categoryExistsLocked(categoryID) {
			return invalid("category", "id", "references an unknown category")
		}
		key := domain.NormalizeName(name)
		for i, tx := range l.state.Transactions {
			if matchesUncategorized(tx, key, before) {
				l.state.Transactions[i].CategoryID = domain.Ptr(categoryID)
				n++
			}
		}
		l.learnLocked(name, categoryID)
		return nil
	})
	return n, err
}

func matchesUncategorized(tx domain.Transaction, key string, before time.Time) bool {
	return !tx.IsTransfer() &&
		tx.CategoryID == nil &&
		tx.Date.Before(before) &&
		domain.NormalizeName(tx.Name) == key
}

func (l *Ledger) learnLocked(name, categoryID string) {
	key := domain.NormalizeName(name)
	if key == "" || categoryID == "" {
		return
	}
	l.state.CategoryMemory[key] = categoryID
}

// suggestLocked only returns categories that still exist.
func (l *Ledger) suggestLocked(name string) (string, bool) {
	id, ok := l.state.CategoryMemory[domain.NormalizeName(name)]
	if !ok || !l.categoryExistsLocked(id) {
		return "", false
	}
	return id, true
}

func (l *Ledger) categoryExistsLocked(id string) bool {
	return l.categoryIndexLocked(id) >= 0
}

func (l *Ledger) categoryIndexLocked(id string) int {
	for i, c := range l.state.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
