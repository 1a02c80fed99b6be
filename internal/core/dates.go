package core

import (
	"strings"
	"time"
)

const (
	ISODateLayout     = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
)

// ParseISODate parses a YYYY-MM-DD date. Longer timestamps are truncated to the date part.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(ISODateLayout) {
		s = s[:len(ISODateLayout)]
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders an ISO date as dd/mm/yyyy. Empty input gives "--" and
// unparseable input is returned as-is.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return "--"
	}
	t, err := ParseISODate(s)
	if err != nil {
		return s
	}
	return t.Format(DisplayDateLayout)
}

// FormatRange renders "dd/mm/yyyy - dd/mm/yyyy".
func FormatRange(start, end string) string {
	return FormatDate(start) + " - " + FormatDate(end)
}

// ParseDisplayDate accepts dd/mm/yyyy and returns the ISO form.
func ParseDisplayDate(s string) (string, error) {
	t, err := time.Parse(DisplayDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(ISODateLayout), nil
}

// Today truncates now to midnight in its own location.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}
