package sheet

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pricefeed-cli/internal/circular"
)

// Column headers of the daily table, in order.
const (
	ColDate         = "Date"
	ColDescription  = "Description"
	ColGrade        = "Grade"
	ColBasicPrice   = "Basic Price"
	ColCircularDate = "Circular Date"
	ColCircularLink = "Circular Link"
)

// Columns lists the daily-table headers in output order.
var Columns = []string{ColDate, ColDescription, ColGrade, ColBasicPrice, ColCircularDate, ColCircularLink}

// ReadStoredRows reads a previously written daily (or event) table and
// returns its rows as raw cell text. A missing file yields no rows and no
// error; the caller starts from an empty event set.
func ReadStoredRows(path string) ([]circular.StoredRow, error) {
	sheet, err := openFirstSheet(path)
	if err != nil || sheet == nil {
		return nil, err
	}
	if len(sheet.Rows) < 2 {
		return nil, nil
	}

	cols := headerIndex(sheet.Rows[0])
	var rows []circular.StoredRow
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, circular.StoredRow{
			Description:  cellAt(row, cols.at(ColDescription)),
			Grade:        cellAt(row, cols.at(ColGrade)),
			RawPrice:     cellAt(row, cols.at(ColBasicPrice)),
			CircularDate: cellAt(row, cols.at(ColCircularDate)),
			CircularLink: cellAt(row, cols.at(ColCircularLink)),
		})
	}
	return rows, nil
}

// ReadOverrides reads the manual-overrides workbook. Each row must carry a
// parseable Circular Date; every other column is optional and patches only
// the field it names. A missing file yields no overrides.
func ReadOverrides(path string) ([]circular.Override, error) {
	sheet, err := openFirstSheet(path)
	if err != nil || sheet == nil {
		return nil, err
	}
	if len(sheet.Rows) < 2 {
		return nil, nil
	}

	cols := headerIndex(sheet.Rows[0])
	if cols.at(ColCircularDate) < 0 {
		return nil, nil
	}

	var overrides []circular.Override
	for _, row := range sheet.Rows[1:] {
		d, ok := circular.ParseEffectiveDate(cellAt(row, cols.at(ColCircularDate)))
		if !ok {
			continue
		}

		var price decimal.NullDecimal
		if s := strings.TrimSpace(strings.ReplaceAll(cellAt(row, cols.at(ColBasicPrice)), ",", "")); s != "" {
			if v, err := decimal.NewFromString(s); err == nil {
				price = decimal.NullDecimal{Decimal: v.Round(3), Valid: true}
			}
		}

		overrides = append(overrides, circular.Override{
			EffectiveDate: d,
			Description:   cellAt(row, cols.at(ColDescription)),
			Grade:         cellAt(row, cols.at(ColGrade)),
			Price:         price,
			SourceLink:    cellAt(row, cols.at(ColCircularLink)),
		})
	}
	return overrides, nil
}

func openFirstSheet(path string) (*xlsx.Sheet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}
	return f.Sheets[0], nil
}

// columnIndex maps trimmed header names to their column position.
type columnIndex map[string]int

// at returns the position of the named column, or -1 when absent.
func (c columnIndex) at(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

func headerIndex(header *xlsx.Row) columnIndex {
	idx := make(columnIndex, len(header.Cells))
	for i, cell := range header.Cells {
		name := strings.TrimSpace(cell.String())
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}

func cellAt(row *xlsx.Row, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[idx].String())
}
