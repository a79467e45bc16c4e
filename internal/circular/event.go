package circular

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGrade is the canonical grade tag for the tracked product variant.
const DefaultGrade = "P1020"

// linkTemplate is the publisher's naming convention for circular PDFs.
const linkTemplate = "https://www.hindalco.com/Upload/PDF/primary-ready-reckoner-%02d-%s-%d.pdf"

// Event is one price circular: the values in force from EffectiveDate until
// superseded by a later circular.
type Event struct {
	EffectiveDate time.Time
	Description   string
	Grade         string
	Price         decimal.NullDecimal
	SourceLink    string
}

// GuessLink synthesizes the expected circular URL for an effective date using
// the publisher's filename convention. Best effort: the URL may not resolve.
func GuessLink(d time.Time) string {
	return fmt.Sprintf(linkTemplate, d.Day(), monthNames[d.Month()-1], d.Year())
}

// ensureLink fills in a synthesized SourceLink when the event has none, so
// the daily table always exposes some link.
func (e Event) ensureLink() Event {
	if e.SourceLink == "" {
		e.SourceLink = GuessLink(e.EffectiveDate)
	}
	return e
}
