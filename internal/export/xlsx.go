package export

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName = 31
	minColWidth  = 10.0
	maxColWidth  = 60.0
	defaultSheet  = "Sheet1"
	dateCellStyle = "dd/mm/yyyy"
)

// WriteXLSX writes the records to a single-sheet workbook with a bold header row
func WriteXLSX(w io.Writer, sheet string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = sheetName(sheet)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7EEF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr(dateCellStyle)})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	headers := Headers(records)
	widths := make([]float64, len(headers))
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header %s: %w", h, err)
		}
		widths[col] = textWidth(h)
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for row, rec := range records {
		for col, h := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			value := cellValue(rec.Get(h))
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if _, isDate := value.(time.Time); isDate {
				if err := f.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
					return fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			}
			if tw := textWidth(FormatValue(rec.Get(h))); tw > widths[col] {
				widths[col] = tw
			}
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue keeps numbers numeric so spreadsheets can sum them
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return val.InexactFloat64()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val
	case string, int, int64, float64:
		return val
	default:
		return FormatValue(val)
	}
}

func sheetName(name string) string {
	if name == "" {
		return defaultSheet
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		return string([]rune(name)[:maxSheetName])
	}
	return name
}

func textWidth(s string) float64 {
	w := float64(utf8.RuneCountInString(s)) + 2
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return w
}

func stringPtr(s string) *string { return &s }
