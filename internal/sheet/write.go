package sheet

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/pricefeed-cli/internal/circular"
)

const (
	sheetName = "Sheet1"
	minColW   = 12
	maxColW   = 80
)

// WriteDaily writes the expanded daily series to an xlsx workbook: centered
// cells, three-decimal price format, hyperlinked circular links, a frozen
// header row and column widths fitted to content. Rows are written in the
// order given (newest first).
func WriteDaily(rows []circular.Row, path string) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetRow(sheetName, "A1", &[]any{
		ColDate, ColDescription, ColGrade, ColBasicPrice, ColCircularDate, ColCircularLink,
	}); err != nil {
		return eris.Wrap(err, "sheet: write header")
	}

	widths := make([]int, len(Columns))
	for i, c := range Columns {
		widths[i] = len(c)
	}

	for i, r := range rows {
		var price any
		priceText := ""
		if r.Price.Valid {
			price = r.Price.Decimal.InexactFloat64()
			priceText = r.Price.Decimal.StringFixed(3)
		}
		link := strings.TrimSpace(r.SourceLink)

		cells := []any{
			circular.FormatDash(r.Date),
			r.Description,
			r.Grade,
			price,
			circular.FormatDot(r.EffectiveDate),
			link,
		}
		texts := []string{
			circular.FormatDash(r.Date), r.Description, r.Grade,
			priceText, circular.FormatDot(r.EffectiveDate), link,
		}
		for c, t := range texts {
			if len(t) > widths[c] {
				widths[c] = len(t)
			}
		}

		rowRef := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, rowRef, &cells); err != nil {
			return eris.Wrapf(err, "sheet: write row %d", i+2)
		}
		if strings.HasPrefix(link, "http") {
			cellRef := fmt.Sprintf("F%d", i+2)
			if err := f.SetCellHyperLink(sheetName, cellRef, link, "External"); err != nil {
				return eris.Wrapf(err, "sheet: hyperlink row %d", i+2)
			}
		}
	}

	if err := applyStyles(f, len(rows), widths); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", path)
	}
	return nil
}

func applyStyles(f *excelize.File, nrows int, widths []int) error {
	center, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return eris.Wrap(err, "sheet: center style")
	}

	priceFmt := "0.000"
	priceStyle, err := f.NewStyle(&excelize.Style{
		Alignment:    &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		CustomNumFmt: &priceFmt,
	})
	if err != nil {
		return eris.Wrap(err, "sheet: price style")
	}

	last := nrows + 1
	if err := f.SetCellStyle(sheetName, "A1", fmt.Sprintf("F%d", last), center); err != nil {
		return eris.Wrap(err, "sheet: apply center style")
	}
	if nrows > 0 {
		if err := f.SetCellStyle(sheetName, "D2", fmt.Sprintf("D%d", last), priceStyle); err != nil {
			return eris.Wrap(err, "sheet: apply price style")
		}
	}

	for i, w := range widths {
		width := w + 2
		if width < minColW {
			width = minColW
		}
		if width > maxColW {
			width = maxColW
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return eris.Wrap(err, "sheet: column name")
		}
		if err := f.SetColWidth(sheetName, col, col, float64(width)); err != nil {
			return eris.Wrap(err, "sheet: column width")
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return eris.Wrap(err, "sheet: freeze header")
	}
	return nil
}
