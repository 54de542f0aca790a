package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Write renders rows as comma-separated name, dd.MM.yy date and European
// amount. Amounts contain a ',' and therefore come out quoted.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		record := []string{row.Name, FormatDate(row.Date), FormatAmount(row.Amount)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("Write: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("Write: flush: %w", err)
	}
	return nil
}
