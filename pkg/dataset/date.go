package dataset

import (
	"fmt"
	"time"
)

// Formats rencontrés dans les exports Account/Payment.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
	"01/02/2006",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
}

// ParseDate lit une date calendaire, toujours interprétée en UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
