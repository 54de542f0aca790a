package csvio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayoutShort = "02.01.06"
	dateLayoutLong  = "02.01.2006"
)

var errEmptyAmount = errors.New("empty amount")

// ParseAmount reads a European formatted amount: ',' is the decimal mark and
// '.' groups thousands. A lone '.' that is not followed by exactly three
// digits is taken as a decimal point, so both "-8,40" and "-8.40" are -8.40
// while "1.234" is 1234.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ".") == 1:
		if frac := s[strings.Index(s, ".")+1:]; len(frac) == 3 && isDigits(frac) {
			s = strings.Replace(s, ".", "", 1)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %q: %w", s, err)
	}
	return d, nil
}

// FormatAmount renders d with two decimals and a ',' decimal mark.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// ParseDate accepts dd.MM.yy and dd.MM.yyyy and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayoutShort, dateLayoutLong} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseDate: unrecognized date %q", s)
}

// FormatDate renders t as dd.MM.yy.
func FormatDate(t time.Time) string {
	return t.Format(dateLayoutShort)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
