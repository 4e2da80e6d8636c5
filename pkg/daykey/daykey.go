// Package daykey converts between timestamps and canonical YYYY-MM-DD day keys.
package daykey

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// From formats t in its own location.
func From(t time.Time) string {
	return t.Format(Layout)
}

// Today is the day key of time.Now in the local zone.
func Today() string {
	return From(time.Now())
}

// Compact returns the day key without dashes, used in human-readable document numbers.
func Compact(key string) string {
	return strings.ReplaceAll(key, "-", "")
}

// Parse returns the local midnight of a canonical key.
func Parse(key string) (time.Time, error) {
	return time.ParseInLocation(Layout, key, time.Local)
}

// AddDays shifts a canonical key by n days.
func AddDays(key string, n int) (string, error) {
	t, err := Parse(key)
	if err != nil {
		return "", err
	}
	return From(t.AddDate(0, 0, n)), nil
}

// Normalize accepts M/D/YY, M/D/YYYY or YYYY-MM-DD and returns YYYY-MM-DD.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if strings.Contains(s, "/") {
		for _, layout := range []string{"1/2/06", "1/2/2006"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(Layout), nil
			}
		}
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	// Exports sometimes append a time component.
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	return t.Format(Layout), nil
}
