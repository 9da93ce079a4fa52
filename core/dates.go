package core

import (
	"regexp"
	"strings"
	"time"
)

const canonicalDateLayout = "2006-01-02T15:04:05Z"

var (
	isoInstantPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)
	isoDatePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// Tried in order; month-first wins for ambiguous inputs such as 03-05-2024.
	dateLayouts = []string{
		"2006/1/2",
		"1-2-2006",
		"2-1-2006",
		"1/2/2006",
		"2/1/2006",
	}

	datePlaceholders = map[string]struct{}{
		"00-00-0000": {},
		"0000-00-00": {},
		"00/00/0000": {},
		"0000/00/00": {},
	}
)

// NormalizeDate converts a published-date field value into the canonical
// YYYY-MM-DDT00:00:00Z form. It returns nil when the value is absent, a
// placeholder, or cannot be parsed; callers treat nil as "leave unset".
func NormalizeDate(v any) *string {
	switch d := v.(type) {
	case nil:
		return nil
	case string:
		return NormalizeDateString(d)
	case *string:
		if d == nil {
			return nil
		}
		return NormalizeDateString(*d)
	case time.Time:
		return canonicalDate(d)
	case *time.Time:
		if d == nil {
			return nil
		}
		return canonicalDate(*d)
	default:
		return nil
	}
}

// NormalizeDateString is NormalizeDate for string input. Values that already
// carry a time component are returned trimmed but otherwise unchanged.
func NormalizeDateString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, ok := datePlaceholders[s]; ok {
		return nil
	}
	if isoInstantPattern.MatchString(s) {
		return &s
	}
	if isoDatePattern.MatchString(s) {
		out := s + "T00:00:00Z"
		return &out
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return canonicalDate(t)
		}
	}
	return nil
}

func canonicalDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	out := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Format(canonicalDateLayout)
	return &out
}
