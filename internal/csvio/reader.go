// Package csvio reads and writes the three-column bank statement format:
// name, date, amount.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one statement line.
type Row struct {
	Name   string
	Date   time.Time
	Amount decimal.Decimal
}

// ReadResult holds the parsed rows and how many lines were dropped.
type ReadResult struct {
	Rows    []Row
	Skipped int
}

// Read parses every line of r. Lines with fewer than three fields, an empty
// name, an unparseable date or amount, or a zero amount are skipped and only
// counted. The field delimiter (',' or ';') is taken from the first line.
func Read(r io.Reader) (ReadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ReadResult{}, fmt.Errorf("Read: read input: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var res ReadResult
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Skipped++
				continue
			}
			return ReadResult{}, fmt.Errorf("Read: parse csv: %w", err)
		}
		row, ok := parseRecord(record)
		if !ok {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func parseRecord(record []string) (Row, bool) {
	if len(record) < 3 {
		return Row{}, false
	}
	name := strings.TrimSpace(record[0])
	if name == "" {
		return Row{}, false
	}
	date, err := ParseDate(record[1])
	if err != nil {
		return Row{}, false
	}
	amount, err := ParseAmount(record[2])
	if err != nil || amount.IsZero() {
		return Row{}, false
	}
	return Row{Name: name, Date: date, Amount: amount}, true
}

// detectDelimiter picks ';' when the first line has more semicolons than
// commas outside quotes.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	var commas, semicolons int
	quoted := false
	for _, b := range line {
		switch b {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				commas++
			}
		case ';':
			if !quoted {
				semicolons++
			}
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}
