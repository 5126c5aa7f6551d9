package model

import (
	"fmt"
	"strings"
	"time"
)

// MissingDate stands in for an absent date in the extracts. It is treated
// the same as no date at all.
var MissingDate = time.Date(1901, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
}

// ParseDate reads a calendar date. Blank input yields MissingDate.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MissingDate, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Known reports whether t is a real date: neither zero nor the sentinel.
func Known(t time.Time) bool {
	return t.After(MissingDate)
}

// DaysBetween is the whole number of calendar days from earlier to later.
func DaysBetween(earlier, later time.Time) int {
	return int(Day(later).Sub(Day(earlier)).Hours() / 24)
}

// FormatDate renders a date as YYYY-MM-DD, or "" when unknown.
func FormatDate(t time.Time) string {
	if !Known(t) {
		return ""
	}
	return t.Format(time.DateOnly)
}
