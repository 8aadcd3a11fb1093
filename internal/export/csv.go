// Package export renders tabular projections of CRM data as CSV, XLSX or PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Field is one named value of a record
type Field struct {
	Key   string
	Value any
}

// Record is an ordered row. The keys of the first record of a batch are the header.
type Record []Field

// Get returns the value stored under key, or nil
func (r Record) Get(key string) any {
	for _, f := range r {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Headers returns the keys of the first record
func Headers(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Key
	}
	return headers
}

// WriteCSV writes a header row followed by one row per record. Values
// containing a comma, a quote or a newline are quoted. Nothing is written for
// an empty batch.
func WriteCSV(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	headers := Headers(records)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(headers))
	for _, rec := range records {
		for i, h := range headers {
			row[i] = FormatValue(rec.Get(h))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// FormatValue renders a cell as text. Dates use the Italian dd/mm/yyyy form.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("02/01/2006")
	case bool:
		if val {
			return "Sì"
		}
		return "No"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
