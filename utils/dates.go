package utils

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts "2006-01-02" or RFC3339 and returns the calendar day
// as UTC midnight, so stored booking dates compare consistently across
// drivers.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// DateOf drops the clock part of t, keeping t's calendar day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
