package sheet

import "github.com/sells-group/pricefeed-cli/internal/circular"

// Workbooks bundles the workbook locations a reconciliation run touches.
type Workbooks struct {
	DailyPath     string
	OverridesPath string
}

// ReadDaily loads the persisted daily table, if any.
func (w Workbooks) ReadDaily() ([]circular.StoredRow, error) {
	return ReadStoredRows(w.DailyPath)
}

// ReadOverrides loads the manual-overrides workbook, if any.
func (w Workbooks) ReadOverrides() ([]circular.Override, error) {
	return ReadOverrides(w.OverridesPath)
}

// WriteDaily replaces the persisted daily table with the given rows.
func (w Workbooks) WriteDaily(rows []circular.Row) error {
	return WriteDaily(rows, w.DailyPath)
}
