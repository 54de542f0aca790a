package notionsync

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/jomei/notionapi"
)

// Property names shared by the mapper and the page extractors.
const (
	propTransactionID = "Transaction ID"
	propCategoryID    = "Category ID"
	propAccountID     = "Account ID"
	propChecksum      = "Checksum"
)

// TransactionToNotionProperties converts a ledger transaction to Notion properties.
// accountNames resolves account IDs for the "Account" column; categoryPageIDs
// maps category IDs to pages of the categories database for the relation.
func TransactionToNotionProperties(tx domain.Transaction, accountNames map[string]string, categoryPageIDs map[string]string) notionapi.Properties {
	props := notionapi.Properties{
		"Name":            title(tx.Name),
		propTransactionID: richText(tx.ID),
		"Date":            date(tx.Date),
		"Amount":          notionapi.NumberProperty{Number: tx.Amount.InexactFloat64()},
		"Kind":            notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Kind)}},
		propChecksum:      richText(TransactionChecksum(tx)),
	}

	if account := accountLabel(tx, accountNames); account != "" {
		props["Account"] = richText(account)
	}

	if tx.CategoryID != nil {
		if pageID, ok := categoryPageIDs[*tx.CategoryID]; ok {
			props["Category"] = notionapi.RelationProperty{
				Relation: []notionapi.Relation{{ID: notionapi.PageID(pageID)}},
			}
		}
	}

	if tx.Note != nil && *tx.Note != "" {
		props["Notes"] = richText(*tx.Note)
	}

	return props
}

// CategoryToNotionProperties converts a category to Notion properties.
func CategoryToNotionProperties(c domain.Category) notionapi.Properties {
	return notionapi.Properties{
		"Name":         title(c.Name),
		propCategoryID: richText(c.ID),
		"Color":        richText(colorHex(c.Color)),
	}
}

// AccountToNotionProperties converts an account and its derived figures to
// Notion properties.
func AccountToNotionProperties(acc domain.Account, summary ledger.AccountSummary) notionapi.Properties {
	props := notionapi.Properties{
		"Account Name": title(acc.Name),
		propAccountID:  richText(acc.ID),
		"Account Type": notionapi.SelectProperty{Select: notionapi.Option{Name: string(acc.Category)}},
		"Balance":      notionapi.NumberProperty{Number: summary.Balance.InexactFloat64()},
		"Saved":        notionapi.NumberProperty{Number: summary.Saved.InexactFloat64()},
		"Free":         notionapi.NumberProperty{Number: summary.Free.InexactFloat64()},
		"Is Available": notionapi.CheckboxProperty{Checkbox: acc.IsAvailable},
		"Is Primary":   notionapi.CheckboxProperty{Checkbox: acc.IsPrimary},
	}
	if acc.ParentID != nil && *acc.ParentID != "" {
		props["Parent Account ID"] = richText(*acc.ParentID)
	}
	return props
}

// TransactionChecksum fingerprints every mirrored field, so a page is only
// rewritten when the transaction actually changed.
func TransactionChecksum(tx domain.Transaction) string {
	fields := []string{
		tx.ID,
		tx.Date.UTC().Format(time.RFC3339),
		tx.Name,
		tx.Amount.String(),
		string(tx.Kind),
		deref(tx.AccountID),
		deref(tx.FromAccountID),
		deref(tx.ToAccountID),
		deref(tx.FromPotID),
		deref(tx.ToPotID),
		deref(tx.CategoryID),
		deref(tx.Note),
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(strings.Join(fields, "\x1f"))))
}

// accountLabel names the account a transaction belongs to. Transfers read
// "From → To"; pot moves stay on their single account.
func accountLabel(tx domain.Transaction, names map[string]string) string {
	name := func(id *string) string {
		if id == nil {
			return ""
		}
		if n, ok := names[*id]; ok {
			return n
		}
		return *id
	}
	if !tx.IsTransfer() {
		return name(tx.AccountID)
	}
	from, to := name(tx.FromAccountID), name(tx.ToAccountID)
	if from == to {
		return from
	}
	return from + " → " + to
}

func title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func date(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func colorHex(c domain.Color) string {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255)) }
	return fmt.Sprintf("#%02X%02X%02X", ch(c.Red), ch(c.Green), ch(c.Blue))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
