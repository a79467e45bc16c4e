package circular

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// dateAnyRE matches dd.mm.yyyy, dd-mm-yyyy and dd/mm/yyyy, possibly embedded
// in surrounding text.
var dateAnyRE = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](\d{4})`)

// filenameDateRE matches the publisher's "07-february-2026" filename style.
var filenameDateRE = regexp.MustCompile(
	`(?i)(\d{1,2})[-_ ]+(january|february|march|april|may|june|july|august|` +
		`september|october|november|december)[-_ ]+(\d{4})`)

// Date returns a day-granularity UTC time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to day granularity in UTC.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseEffectiveDate extracts the first date-shaped substring from messy cell
// text, accepting dot, dash and slash separators. ok is false when no valid
// date is present; callers decide the fallback policy.
func ParseEffectiveDate(text string) (time.Time, bool) {
	m := dateAnyRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	dd, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	yyyy, _ := strconv.Atoi(m[3])
	return makeDate(yyyy, mm, dd)
}

// ParseFilenameDate extracts the effective date embedded in a circular
// filename or URL, e.g. "primary-ready-reckoner-07-february-2026.pdf".
func ParseFilenameDate(name string) (time.Time, bool) {
	m := filenameDateRE.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	dd, _ := strconv.Atoi(m[1])
	mm := monthNumber(m[2])
	yyyy, _ := strconv.Atoi(m[3])
	return makeDate(yyyy, mm, dd)
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	for i, n := range monthNames {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// makeDate validates the day/month combination; time.Date would silently
// normalize 31.02 into early March.
func makeDate(yyyy, mm, dd int) (time.Time, bool) {
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, false
	}
	d := Date(yyyy, time.Month(mm), dd)
	if d.Day() != dd || d.Month() != time.Month(mm) || d.Year() != yyyy {
		return time.Time{}, false
	}
	return d, true
}

// FormatDash renders a date as dd-mm-yyyy, the Date column convention.
func FormatDash(d time.Time) string {
	return d.Format("02-01-2006")
}

// FormatDot renders a date as dd.mm.yyyy, the Circular Date column convention.
func FormatDot(d time.Time) string {
	return d.Format("02.01.2006")
}
