package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// multiSpaceRE splits layout-preserved lines into table-shaped cells: runs
// of two or more spaces separate columns.
var multiSpaceRE = regexp.MustCompile(`\s{2,}`)

// Decoder turns a PDF file into a Document using the pdftotext CLI: a
// -layout pass recovers table-shaped rows and a -bbox pass recovers word
// positions for the line-reconstruction fallback.
type Decoder struct {
	binPath string
}

// NewDecoder creates a Decoder. If binPath is empty, "pdftotext" is used.
func NewDecoder(binPath string) *Decoder {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &Decoder{binPath: binPath}
}

// Decode runs both pdftotext passes on the given file and folds their output
// into one Document.
func (d *Decoder) Decode(ctx context.Context, pdfPath string) (Document, error) {
	layout, err := d.run(ctx, pdfPath, "-layout")
	if err != nil {
		return Document{}, err
	}
	bbox, err := d.run(ctx, pdfPath, "-bbox")
	if err != nil {
		return Document{}, err
	}

	tables := parseLayout(string(layout))
	words, err := parseBBox(bbox)
	if err != nil {
		return Document{}, eris.Wrapf(err, "extract: parse bbox output for %s", pdfPath)
	}

	n := len(tables)
	if len(words) > n {
		n = len(words)
	}
	doc := Document{Pages: make([]Page, n)}
	for i := range doc.Pages {
		if i < len(tables) {
			doc.Pages[i].Tables = tables[i]
		}
		if i < len(words) {
			doc.Pages[i].Words = words[i]
		}
	}
	return doc, nil
}

func (d *Decoder) run(ctx context.Context, pdfPath string, mode string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.binPath, mode, pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "extract: pdftotext %s failed for %s: %s", mode, pdfPath, stderr.String())
	}

	return stdout.Bytes(), nil
}

// parseLayout converts -layout output into per-page tables. Pages are
// separated by form feeds; each non-blank line becomes a row whose cells are
// split on runs of two or more spaces.
func parseLayout(text string) [][][][]string {
	pageTexts := strings.Split(text, "\f")
	pages := make([][][][]string, 0, len(pageTexts))

	for _, pt := range pageTexts {
		var rows [][]string
		for _, line := range strings.Split(pt, "\n") {
			line = strings.TrimRight(line, " \r")
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			rows = append(rows, multiSpaceRE.Split(trimmed, -1))
		}
		if rows == nil {
			pages = append(pages, nil)
			continue
		}
		pages = append(pages, [][][]string{rows})
	}

	// The final form feed produces a trailing empty page.
	for len(pages) > 0 && pages[len(pages)-1] == nil {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// bboxHTML mirrors the XHTML structure pdftotext -bbox emits.
type bboxHTML struct {
	XMLName xml.Name   `xml:"html"`
	Pages   []bboxPage `xml:"body>doc>page"`
}

type bboxPage struct {
	Words []bboxWord `xml:"word"`
}

type bboxWord struct {
	XMin float64 `xml:"xMin,attr"`
	YMin float64 `xml:"yMin,attr"`
	Text string  `xml:",chardata"`
}

// parseBBox converts -bbox output into per-page positioned words.
func parseBBox(data []byte) ([][]Word, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var doc bboxHTML
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "decode bbox xml")
	}

	pages := make([][]Word, len(doc.Pages))
	for i, p := range doc.Pages {
		words := make([]Word, 0, len(p.Words))
		for _, w := range p.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			words = append(words, Word{Text: text, X: w.XMin, Y: w.YMin})
		}
		pages[i] = words
	}
	return pages, nil
}
