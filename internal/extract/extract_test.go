package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRow_TableRow(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"Sl.no.", "Description", "Basic Price"},
			{"1", "EC GRADE P0610 P1020 ALUMINIUM WIRE ROD", "245000"},
			{"2", "OTHER GRADE BILLETS", "251000"},
		}},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "1 EC GRADE P0610 P1020 ALUMINIUM WIRE ROD", row.Description)
	assert.Equal(t, "245000", row.RawPrice)
}

func TestFindRow_TableRowStripsThousandsSeparators(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"1", "EC Grade P0610 P1020 Wire Rod", "2,45,000"},
		}},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "245000", row.RawPrice)
}

func TestFindRow_PriceIsLastDigitBearingCell(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"1", "EC GRADE P0610 P1020 WIRE ROD", "245000", "per MT", ""},
		}},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "245000", row.RawPrice)
	assert.Equal(t, "1 EC GRADE P0610 P1020 WIRE ROD per MT", row.Description)
}

func TestFindRow_SkipsBlankCells(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"", "EC GRADE P0610 P1020 WIRE ROD", "", "245000"},
		}},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "EC GRADE P0610 P1020 WIRE ROD", row.Description)
	assert.Equal(t, "245000", row.RawPrice)
}

func TestFindRow_WordFallback(t *testing.T) {
	// No tables at all; the row only exists as positioned words. Words are
	// given out of order with slightly different vertical offsets that round
	// to the same line.
	doc := Document{Pages: []Page{{
		Words: []Word{
			{Text: "245000", X: 400, Y: 120.04},
			{Text: "EC", X: 50, Y: 120.01},
			{Text: "Grade", X: 80, Y: 119.99},
			{Text: "P0610", X: 130, Y: 120.02},
			{Text: "P1020", X: 180, Y: 120.0},
			{Text: "Header", X: 50, Y: 40.0},
		},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "EC Grade P0610 P1020 245000", row.Description)
	assert.Equal(t, "245000", row.RawPrice)
}

func TestFindRow_WordFallbackOnlyWhenNoTableMatches(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"1", "EC GRADE P0610 P1020 WIRE ROD", "245000"},
		}},
		Words: []Word{
			{Text: "EC", X: 0, Y: 0}, {Text: "Grade", X: 10, Y: 0},
			{Text: "P0610", X: 20, Y: 0}, {Text: "P1020", X: 30, Y: 0},
			{Text: "999999", X: 40, Y: 0},
		},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Equal(t, "245000", row.RawPrice)
}

func TestFindRow_SearchesAllPages(t *testing.T) {
	doc := Document{Pages: []Page{
		{Tables: [][][]string{{{"header page"}}}},
		{Tables: [][][]string{{
			{"1", "EC GRADE P0610 P1020 WIRE ROD", "245000"},
		}}},
	}}

	_, err := FindRow(doc)
	assert.NoError(t, err)
}

func TestFindRow_NotFound(t *testing.T) {
	doc := Document{Pages: []Page{{
		Tables: [][][]string{{
			{"1", "SOME OTHER PRODUCT", "199000"},
		}},
		Words: []Word{{Text: "nothing", X: 0, Y: 0}},
	}}}

	_, err := FindRow(doc)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestFindRow_WordFallbackWithoutTrailingPrice(t *testing.T) {
	doc := Document{Pages: []Page{{
		Words: []Word{
			{Text: "EC", X: 0, Y: 0}, {Text: "Grade", X: 10, Y: 0},
			{Text: "P0610", X: 20, Y: 0}, {Text: "P1020", X: 30, Y: 0},
			{Text: "TBD", X: 40, Y: 0},
		},
	}}}

	row, err := FindRow(doc)
	require.NoError(t, err)
	assert.Empty(t, row.RawPrice)
}

func TestLinesFromWords_GroupsAndOrders(t *testing.T) {
	lines := linesFromWords([]Word{
		{Text: "world", X: 100, Y: 50.02},
		{Text: "hello", X: 10, Y: 49.98},
		{Text: "second", X: 10, Y: 80},
	})

	require.Len(t, lines, 2)
	assert.Equal(t, "hello world", lines[0])
	assert.Equal(t, "second", lines[1])
}
