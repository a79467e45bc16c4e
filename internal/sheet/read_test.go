package sheet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pricefeed-cli/internal/circular"
)

func writeTestWorkbook(t *testing.T, path string, header []string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet("Sheet1")
	require.NoError(t, err)

	hr := sh.AddRow()
	for _, h := range header {
		hr.AddCell().Value = h
	}
	for _, r := range rows {
		xr := sh.AddRow()
		for _, c := range r {
			xr.AddCell().Value = c
		}
	}
	require.NoError(t, f.Save(path))
}

func TestReadStoredRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.xlsx")
	writeTestWorkbook(t, path, Columns, [][]string{
		{"05-08-2025", "EC GRADE P0610 P1020 WIRE ROD", "P1020", "245.000", "05.08.2025", "https://example.com/a.pdf"},
		{"04-08-2025", "EC GRADE P0610 P1020 WIRE ROD", "P1020", "240.500", "01.08.2025", "https://example.com/b.pdf"},
	})

	rows, err := ReadStoredRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "245.000", rows[0].RawPrice)
	assert.Equal(t, "05.08.2025", rows[0].CircularDate)
	assert.Equal(t, "https://example.com/b.pdf", rows[1].CircularLink)
}

func TestReadStoredRows_ColumnOrderIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.xlsx")
	writeTestWorkbook(t, path,
		[]string{ColCircularDate, ColBasicPrice, ColDescription},
		[][]string{{"01.08.2025", "240.500", "desc"}},
	)

	rows, err := ReadStoredRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "01.08.2025", rows[0].CircularDate)
	assert.Equal(t, "240.500", rows[0].RawPrice)
	assert.Equal(t, "desc", rows[0].Description)
	assert.Empty(t, rows[0].CircularLink)
}

func TestReadStoredRows_MissingFile(t *testing.T) {
	rows, err := ReadStoredRows(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestReadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.xlsx")
	writeTestWorkbook(t, path,
		[]string{ColCircularDate, ColBasicPrice, ColCircularLink},
		[][]string{
			{"02.08.2025", "243.250", ""},
			{"not a date", "999", ""},
			{"03.08.2025", "", "https://example.com/fix.pdf"},
		},
	)

	overrides, err := ReadOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 2)

	assert.True(t, circular.Date(2025, time.August, 2).Equal(overrides[0].EffectiveDate))
	assert.True(t, overrides[0].Price.Valid)
	assert.Equal(t, "243.250", overrides[0].Price.Decimal.StringFixed(3))

	assert.False(t, overrides[1].Price.Valid)
	assert.Equal(t, "https://example.com/fix.pdf", overrides[1].SourceLink)
}

func TestReadOverrides_RequiresCircularDateColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.xlsx")
	writeTestWorkbook(t, path, []string{ColBasicPrice}, [][]string{{"245"}})

	overrides, err := ReadOverrides(path)
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestReadOverrides_MissingFile(t *testing.T) {
	overrides, err := ReadOverrides(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.NoError(t, err)
	assert.Nil(t, overrides)
}
