package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// requiredTokens must all appear (case-insensitive) in a row's concatenated
// text for it to be the tracked product row.
var requiredTokens = []string{"P0610", "P1020", "EC GRADE"}

// ErrRowNotFound reports that no row in the document satisfies the
// required-token predicate.
var ErrRowNotFound = eris.New("extract: target row not found")

// trailingPriceRE captures the trailing numeric token of a reconstructed
// text line once thousands separators are stripped.
var trailingPriceRE = regexp.MustCompile(`(\d{5,7}(?:\.\d+)?)\s*$`)

// Row is the extracted target row: its free-text description and the raw
// price string with thousands separators stripped.
type Row struct {
	Description string
	RawPrice    string
}

// FindRow locates the tracked product row in a decoded document. Table rows
// are tried first across all pages; when none match, lines are reconstructed
// from positioned words and matched the same way.
func FindRow(doc Document) (Row, error) {
	for _, page := range doc.Pages {
		for _, tbl := range page.Tables {
			for _, cells := range tbl {
				if r, ok := matchTableRow(cells); ok {
					return r, nil
				}
			}
		}
	}

	for _, page := range doc.Pages {
		for _, line := range linesFromWords(page.Words) {
			if r, ok := matchLine(line); ok {
				return r, nil
			}
		}
	}

	return Row{}, ErrRowNotFound
}

func hasRequiredTokens(s string) bool {
	u := strings.ToUpper(s)
	for _, tok := range requiredTokens {
		if !strings.Contains(u, tok) {
			return false
		}
	}
	return true
}

// matchTableRow tests a table row against the required tokens. The price is
// the last cell containing a digit; the description joins the remaining
// cells.
func matchTableRow(cells []string) (Row, bool) {
	trimmed := make([]string, len(cells))
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
	}
	if !hasRequiredTokens(strings.Join(trimmed, " ")) {
		return Row{}, false
	}

	priceIdx := -1
	for i := len(trimmed) - 1; i >= 0; i-- {
		if strings.ContainsAny(trimmed[i], "0123456789") {
			priceIdx = i
			break
		}
	}

	var rawPrice string
	var descParts []string
	for i, c := range trimmed {
		if i == priceIdx {
			rawPrice = strings.ReplaceAll(c, ",", "")
			continue
		}
		if c != "" {
			descParts = append(descParts, c)
		}
	}

	return Row{
		Description: strings.Join(strings.Fields(strings.Join(descParts, " ")), " "),
		RawPrice:    rawPrice,
	}, true
}

// matchLine tests a reconstructed text line against the required tokens. The
// price is the right-anchored trailing numeric token.
func matchLine(line string) (Row, bool) {
	if !hasRequiredTokens(line) {
		return Row{}, false
	}

	var rawPrice string
	if m := trailingPriceRE.FindStringSubmatch(strings.ReplaceAll(line, ",", "")); m != nil {
		rawPrice = m[1]
	}

	return Row{Description: strings.TrimSpace(line), RawPrice: rawPrice}, true
}

// linesFromWords groups words into horizontal lines by rounding the vertical
// offset to one decimal place, then orders each line left to right.
func linesFromWords(words []Word) []string {
	byY := make(map[float64][]Word)
	var ys []float64
	for _, w := range words {
		y := math.Round(w.Y*10) / 10
		if _, ok := byY[y]; !ok {
			ys = append(ys, y)
		}
		byY[y] = append(byY[y], w)
	}
	sort.Float64s(ys)

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		ws := byY[y]
		sort.SliceStable(ws, func(i, j int) bool { return ws[i].X < ws[j].X })
		parts := make([]string, len(ws))
		for i, w := range ws {
			parts[i] = w.Text
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}
