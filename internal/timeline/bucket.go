package timeline

import (
	"errors"
	"fmt"
	"time"
)

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"

	// labelLayout renders e.g. "Tuesday, March 5".
	labelLayout = "Monday, January 2"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// TimestampError reports the message that stopped an assembly, so a caller
// can drop it and retry with the remainder.
type TimestampError struct {
	Index     int
	MessageID string
	Value     string
	Reason    string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("message %q at index %d: %s: %q", e.MessageID, e.Index, e.Reason, e.Value)
}

func (e *TimestampError) Unwrap() error {
	return ErrInvalidTimestamp
}

// ParseTimestamp accepts RFC 3339 instants with or without fractional
// seconds.
func ParseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
	}
	return t, nil
}

// BucketOf classifies ts into a display bucket relative to now. Days are
// compared on the calendar of now's location.
func BucketOf(ts string, now time.Time) (string, error) {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return bucketAt(t, now), nil
}

func bucketAt(t, now time.Time) string {
	t = t.In(now.Location())
	if sameDay(t, now) {
		return LabelToday
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return LabelYesterday
	}
	return t.Format(labelLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
