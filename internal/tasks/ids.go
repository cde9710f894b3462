package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseID converts an externally supplied identifier into a positive integer.
// Anything else fails with an *InvalidIdentifierError carrying raw.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &InvalidIdentifierError{Raw: raw}
	}
	return id, nil
}

// ValidateID checks an id that arrived already typed, such as a JSON number
// or an integer flag.
func ValidateID(id int64) error {
	if id <= 0 {
		return &InvalidIdentifierError{Raw: strconv.FormatInt(id, 10)}
	}
	return nil
}

// ParseDueDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
}
