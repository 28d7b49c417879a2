package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical filing date layout (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// compactDateLayout is the EDGAR query layout (YYYYMMDD).
const compactDateLayout = "20060102"

// ParseDate parses a calendar date in YYYY-MM-DD or YYYYMMDD form as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, compactDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole number of days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(truncateDay(end).Sub(truncateDay(start)).Hours() / 24)
}

// LastNDays returns the [today-n, today] range ending at now.
func LastNDays(now time.Time, n int) (start, end time.Time) {
	end = truncateDay(now)
	return end.AddDate(0, 0, -n), end
}

// NormalizeFilingDate extracts a YYYY-MM-DD date from the common SEC/FMP
// date renderings ("2024-01-05", "2024-01-05 16:30:12", RFC3339).
// Returns "" when no date can be recognised.
func NormalizeFilingDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		if t, err := time.Parse(DateLayout, s[:10]); err == nil {
			return FormatDate(t)
		}
	}
	if t, err := time.Parse(compactDateLayout, s); err == nil {
		return FormatDate(t)
	}
	return ""
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
