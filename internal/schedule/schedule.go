// Package schedule models messages queued for later delivery and computes
// when each one is next due.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

var ErrInvalid = errors.New("invalid scheduled message")

type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

type State string

const (
	StatePending State = "pending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

type Message struct {
	ID           string `json:"id" yaml:"id"`
	ChatID       string `json:"chat_id" yaml:"chat_id"`
	Content      string `json:"content" yaml:"content"`
	ScheduledFor string `json:"scheduled_for" yaml:"scheduled_for"`
	Repeat       Repeat `json:"repeat" yaml:"repeat"`
	Status       State  `json:"status" yaml:"status"`
}

// Upcoming pairs a pending message with its next due time.
type Upcoming struct {
	Message Message   `json:"message"`
	NextRun time.Time `json:"next_run"`
}

func (m *Message) Validate() error {
	if strings.TrimSpace(m.ChatID) == "" {
		return fmt.Errorf("%w: chat id is required", ErrInvalid)
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalid)
	}
	if _, err := m.at(); err != nil {
		return err
	}
	switch m.Repeat {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
	default:
		return fmt.Errorf("%w: unknown repeat %q", ErrInvalid, m.Repeat)
	}
	switch m.Status {
	case StatePending, StateSent, StateFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, m.Status)
	}
	return nil
}

func (m *Message) at() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, m.ScheduledFor)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unparsable scheduled_for %q", ErrInvalid, m.ScheduledFor)
	}
	return t, nil
}

// CronExpr anchors a repeating message at its first scheduled minute. It
// returns "" for one-off messages.
func CronExpr(m Message) (string, error) {
	t, err := m.at()
	if err != nil {
		return "", err
	}
	switch m.Repeat {
	case RepeatNone:
		return "", nil
	case RepeatDaily:
		return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
	case RepeatWeekly:
		return fmt.Sprintf("%d %d * * %d", t.Minute(), t.Hour(), int(t.Weekday())), nil
	case RepeatMonthly:
		return fmt.Sprintf("%d %d %d * *", t.Minute(), t.Hour(), t.Day()), nil
	}
	return "", fmt.Errorf("%w: unknown repeat %q", ErrInvalid, m.Repeat)
}

// NextRun returns the first due time strictly after after. Before the
// initial ScheduledFor that is ScheduledFor itself; a one-off message has no
// run once it has passed.
func NextRun(m Message, after time.Time) (time.Time, bool, error) {
	first, err := m.at()
	if err != nil {
		return time.Time{}, false, err
	}
	if after.Before(first) {
		return first, true, nil
	}

	expr, err := CronExpr(m)
	if err != nil {
		return time.Time{}, false, err
	}
	if expr == "" {
		return time.Time{}, false, nil
	}
	if !gronx.IsValid(expr) {
		return time.Time{}, false, fmt.Errorf("%w: bad cron expression %q", ErrInvalid, expr)
	}

	next, err := gronx.NextTickAfter(expr, after.In(first.Location()), false)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to compute next run: %w", err)
	}
	return next, true, nil
}

// UpcomingAt lists pending messages that still have a run after now, soonest
// first. Messages that fail to parse are skipped.
func UpcomingAt(list []Message, now time.Time) []Upcoming {
	out := make([]Upcoming, 0, len(list))
	for _, m := range list {
		if m.Status != StatePending {
			continue
		}
		next, ok, err := NextRun(m, now)
		if err != nil || !ok {
			continue
		}
		out = append(out, Upcoming{Message: m, NextRun: next})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextRun.Before(out[j].NextRun)
	})
	return out
}
