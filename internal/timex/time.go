package timex

import (
	"fmt"
	"time"
)

// Layout is the fixed-width UTC layout used for persisted timestamps.
// Lexical order of formatted values equals chronological order.
const Layout = "2006-01-02T15:04:05.000000Z"

// Precision matches the timestamp resolution of the remote Postgres store,
// so a value survives a round trip unchanged.
const Precision = time.Microsecond

// Now returns the current UTC time truncated to Precision.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize converts t to UTC and truncates it to Precision.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}

// Format renders t with Layout.
func Format(t time.Time) string {
	return Normalize(t).Format(Layout)
}

// FormatPtr renders t or returns nil for a nil pointer, for nullable columns.
func FormatPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Format(*t)
}

// Parse reads a timestamp written by Format. RFC 3339 values are accepted too.
func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Normalize(t), nil
}

// ParseNullable is Parse for nullable columns; an empty value yields nil.
func ParseNullable(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := Parse(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
