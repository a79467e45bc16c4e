package circular

import "time"

// Row is one calendar day of the expanded series, carrying the values of the
// governing circular (the latest event effective on or before the day).
type Row struct {
	Date time.Time
	Event
}

// CutoffPolicy selects how far the daily series extends.
type CutoffPolicy string

const (
	// CutoffToday extends the series through the current day.
	CutoffToday CutoffPolicy = "today"
	// CutoffYesterday clamps the series to yesterday unless the latest
	// circular is newer, in which case it extends through that circular's
	// own effective date.
	CutoffYesterday CutoffPolicy = "yesterday"
)

// Cutoff resolves the policy to a concrete end date given the current time
// and the latest known event date (zero when the store is empty).
func (p CutoffPolicy) Cutoff(now, latest time.Time) time.Time {
	today := Day(now)
	if p == CutoffYesterday {
		yesterday := today.AddDate(0, 0, -1)
		if !latest.IsZero() && Day(latest).After(yesterday) {
			return Day(latest)
		}
		return yesterday
	}
	return today
}

// Expand renders the store as one row per calendar day from the earliest
// event's date through cutoff inclusive, forward-filling each day with the
// governing event. When the earliest event postdates the cutoff the start is
// clamped to the cutoff, producing a single-day table. Rows are returned
// newest first.
func Expand(s *Store, cutoff time.Time) []Row {
	events := s.Events()
	if len(events) == 0 {
		return nil
	}

	cutoff = Day(cutoff)
	start := events[0].EffectiveDate
	if start.After(cutoff) {
		start = cutoff
	}

	var rows []Row
	idx := 0
	for d := start; !d.After(cutoff); d = d.AddDate(0, 0, 1) {
		for idx+1 < len(events) && !events[idx+1].EffectiveDate.After(d) {
			idx++
		}
		rows = append(rows, Row{Date: d, Event: events[idx]})
	}

	// The walk is ascending; presentation is newest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}
