package circular

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var urlRE = regexp.MustCompile(`https?://\S+`)

// Store is a chronologically ordered, date-unique collection of circular
// events. At most one event exists per effective date; inserting a second
// event for the same date replaces the first wholesale.
type Store struct {
	events []Event
}

// NewStore creates a Store from the given events, applying the usual
// replace-on-date semantics.
func NewStore(events ...Event) *Store {
	s := &Store{}
	for _, e := range events {
		s.InsertOrReplace(e)
	}
	return s
}

// StoredRow is one row of a previously persisted event or daily table, as
// raw cell text.
type StoredRow struct {
	Description  string
	Grade        string
	RawPrice     string
	CircularDate string
	CircularLink string
}

// LoadFromRows reconstructs a Store from persisted rows. The circular date is
// parsed flexibly (first date-shaped substring wins), falling back to the
// link cell; rows without a resolvable date are dropped. When several rows
// share an effective date, the last one encountered wins.
func LoadFromRows(rows []StoredRow) *Store {
	var events []Event
	for _, r := range rows {
		d, ok := ParseEffectiveDate(r.CircularDate)
		if !ok {
			d, ok = ParseEffectiveDate(r.CircularLink)
		}
		if !ok {
			continue
		}

		var price decimal.NullDecimal
		if s := strings.TrimSpace(strings.ReplaceAll(r.RawPrice, ",", "")); s != "" {
			if v, err := decimal.NewFromString(s); err == nil {
				price = decimal.NullDecimal{Decimal: v.Round(3), Valid: true}
			}
		}

		link := strings.TrimSpace(r.CircularLink)
		if !strings.HasPrefix(link, "http") {
			link = firstURL(r.CircularLink, r.CircularDate, r.Description)
		}

		grade := strings.TrimSpace(r.Grade)
		if grade == "" {
			grade = DefaultGrade
		}

		events = append(events, Event{
			EffectiveDate: d,
			Description:   strings.TrimSpace(r.Description),
			Grade:         grade,
			Price:         price,
			SourceLink:    link,
		})
	}

	// Stable sort, then sequential insert: later rows for the same date
	// replace earlier ones.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EffectiveDate.Before(events[j].EffectiveDate)
	})
	return NewStore(events...)
}

// firstURL returns the first http(s) URL found in any of the given cells.
func firstURL(cells ...string) string {
	for _, c := range cells {
		if m := urlRE.FindString(c); m != "" {
			return m
		}
	}
	return ""
}

// Len returns the number of events in the store.
func (s *Store) Len() int {
	return len(s.events)
}

// Events returns the events in ascending effective-date order.
func (s *Store) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns the event for the given effective date, if present.
func (s *Store) Get(date time.Time) (Event, bool) {
	date = Day(date)
	for _, e := range s.events {
		if e.EffectiveDate.Equal(date) {
			return e, true
		}
	}
	return Event{}, false
}

// LatestDate returns the effective date of the newest event, or the zero
// time when the store is empty.
func (s *Store) LatestDate() time.Time {
	if len(s.events) == 0 {
		return time.Time{}
	}
	return s.events[len(s.events)-1].EffectiveDate
}

// InsertOrReplace removes any existing event with the same effective date,
// adds the new one and restores ascending date order. Re-inserting an
// identical event is observationally a no-op. An empty SourceLink is filled
// with the synthesized circular URL.
func (s *Store) InsertOrReplace(e Event) {
	e.EffectiveDate = Day(e.EffectiveDate)
	e = e.ensureLink()

	kept := s.events[:0]
	for _, ex := range s.events {
		if !ex.EffectiveDate.Equal(e.EffectiveDate) {
			kept = append(kept, ex)
		}
	}
	s.events = append(kept, e)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].EffectiveDate.Before(s.events[j].EffectiveDate)
	})
}

// Override is a manual correction row. Only the fields it explicitly
// supplies are applied; EffectiveDate is required.
type Override struct {
	EffectiveDate time.Time
	Description   string
	Grade         string
	Price         decimal.NullDecimal
	SourceLink    string
}

// ApplyOverride layers a manual correction on top of the machine-extracted
// events. For an unknown date a minimal event is created with ungiven fields
// defaulted; for a known date only the supplied fields are patched.
func (s *Store) ApplyOverride(o Override) {
	d := Day(o.EffectiveDate)

	existing, ok := s.Get(d)
	if !ok {
		grade := o.Grade
		if grade == "" {
			grade = DefaultGrade
		}
		s.InsertOrReplace(Event{
			EffectiveDate: d,
			Description:   o.Description,
			Grade:         grade,
			Price:         o.Price,
			SourceLink:    o.SourceLink,
		})
		return
	}

	if o.Description != "" {
		existing.Description = o.Description
	}
	if o.Grade != "" {
		existing.Grade = o.Grade
	}
	if o.Price.Valid {
		existing.Price = o.Price
	}
	if o.SourceLink != "" {
		existing.SourceLink = o.SourceLink
	}
	s.InsertOrReplace(existing)
}
